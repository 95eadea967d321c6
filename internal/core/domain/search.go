package domain

// SearchResult is a single retrieval hit. Ephemeral, produced per
// query, never persisted.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the similarity score, descending across a result set.
	Score float64

	// Rank is the 1-based position within the result set.
	Rank int
}

// AskMode selects how a question is answered.
type AskMode string

// Available ask modes.
const (
	// AskModeLLM answers through the tool-dispatching agent loop when
	// available, degrading to retrieval-only on failure.
	AskModeLLM AskMode = "llm"

	// AskModeBasic always takes the retrieval-only path, bypassing the
	// agent regardless of its availability.
	AskModeBasic AskMode = "basic"
)

// IsValid returns true if the ask mode is recognised.
func (m AskMode) IsValid() bool {
	switch m {
	case AskModeLLM, AskModeBasic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m AskMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m AskMode) Description() string {
	switch m {
	case AskModeLLM:
		return "LLM (agent loop with retrieval tools)"
	case AskModeBasic:
		return "Basic (retrieval only)"
	default:
		return "Unknown"
	}
}

// Answer is the user-visible outcome of one ask call.
type Answer struct {
	// Text is the answer content.
	Text string

	// Degraded is true when the answer came from the fallback path
	// instead of the agent loop.
	Degraded bool

	// Turn records the agent activity that produced the answer.
	// Nil on the fallback path.
	Turn *AgentTurn
}
