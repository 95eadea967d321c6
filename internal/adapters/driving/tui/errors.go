package tui

import "errors"

// ErrNoAskService is returned when the ask service is not provided.
var ErrNoAskService = errors.New("tui: ask service is required")
