package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrConfiguration indicates missing or invalid setup.
	// It is fatal and always surfaced to the caller before any network call.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrProvider indicates an embedding or LLM call failed after retries.
	// Query-time callers recover by taking the fallback answer path.
	ErrProvider = errors.New("provider request failed")

	// ErrToolSelection indicates the agent chose a tool outside the declared
	// capability set. The turn is terminated; callers may fall back.
	ErrToolSelection = errors.New("undeclared tool selected")

	// ErrTimeout indicates a bounded wait was exceeded.
	// Read-path timeouts never corrupt index state.
	ErrTimeout = errors.New("operation timed out")

	// ErrNotFound indicates a referenced collection or entity does not exist.
	// Fatal for the current request only.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates a malformed argument, such as a
	// non-positive result count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAgentUnavailable indicates the agent loop could not be constructed.
	// Questions are still answerable through the retrieval-only path.
	ErrAgentUnavailable = errors.New("agent unavailable")
)
