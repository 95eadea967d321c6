package domain

// AgentState is one state of the agent loop's finite state machine.
type AgentState string

// Agent loop states. Every turn starts in AwaitingDecision and
// terminates in Done within a bounded number of rounds.
const (
	// StateAwaitingDecision holds the question while the driving model
	// selects a tool or opts to answer.
	StateAwaitingDecision AgentState = "awaiting_decision"

	// StateToolInvoked means a declared tool is executing synchronously.
	StateToolInvoked AgentState = "tool_invoked"

	// StateObserving appends the tool's output to the turn context.
	StateObserving AgentState = "observing"

	// StateAnswering means the model is composing the final answer from
	// the gathered observations.
	StateAnswering AgentState = "answering"

	// StateDone is the terminal state.
	StateDone AgentState = "done"
)

// String returns the string representation.
func (s AgentState) String() string {
	return string(s)
}

// ToolInvocation records one tool call within a turn: the selected
// tool, its argument and the observation it produced.
type ToolInvocation struct {
	Tool        string
	Input       string
	Observation string
}

// AgentTurn is the ephemeral record of one question's journey through
// the agent loop. It exists for the duration of a single query and is
// not persisted; there is no conversation memory across turns unless
// the caller explicitly threads prior turns back in.
type AgentTurn struct {
	// ID identifies the turn for logging.
	ID string

	// Question is the user's question.
	Question string

	// Invocations are the tool calls made during the turn, in order.
	Invocations []ToolInvocation

	// Answer is the final answer text.
	Answer string

	// Rounds is the number of decision rounds consumed.
	Rounds int

	// State is the terminal state of the turn.
	State AgentState
}
