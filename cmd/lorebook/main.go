package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/runehall/lorebook/internal/adapters/driving/cli"
)

func main() {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
