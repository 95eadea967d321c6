package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
	"github.com/runehall/lorebook/internal/logger"
)

// decisionPrompt instructs the model to answer with exactly one JSON
// object per round. Kept deliberately rigid: the loop parses nothing
// but these two shapes.
const decisionPrompt = `You answer questions about a tabletop RPG rulebook using retrieval tools.

Available tools:
- search: find rulebook passages relevant to a query. Input: a search query.
- summarize: get a broad overview of a topic from many passages. Input: a topic.

Each round, respond with exactly one JSON object and nothing else:
- To call a tool: {"tool": "<name>", "input": "<argument>"}
- To answer:      {"answer": "<final answer, citing page numbers where possible>"}

Answer as soon as you have enough context. Base answers only on tool observations.`

// decision is the JSON shape the model must produce each round.
type decision struct {
	Tool   string `json:"tool,omitempty"`
	Input  string `json:"input,omitempty"`
	Answer string `json:"answer,omitempty"`
}

// Agent runs the tool-dispatching answer loop: the driving model picks
// a declared tool or answers, observations are threaded back, and the
// round limit guarantees termination.
type Agent struct {
	llm         driven.LLMService
	tools       *Toolbox
	maxRounds   int
	temperature float64
}

// NewAgent creates an agent over a toolbox.
func NewAgent(llm driven.LLMService, tools *Toolbox, maxRounds int, temperature float64) *Agent {
	if maxRounds <= 0 {
		maxRounds = domain.DefaultMaxRounds
	}
	return &Agent{
		llm:         llm,
		tools:       tools,
		maxRounds:   maxRounds,
		temperature: temperature,
	}
}

// Run answers one question through the agent loop. The returned turn
// always terminates in the done state; err is non-nil when the turn
// could not produce an answer and the caller should fall back.
func (a *Agent) Run(ctx context.Context, question string) (*domain.AgentTurn, error) {
	turn := &domain.AgentTurn{
		ID:       uuid.NewString(),
		Question: question,
		State:    domain.StateAwaitingDecision,
	}

	logger.Section("Agent Turn")
	logger.Debug("Turn %s: %q", turn.ID, question)

	messages := []driven.ChatMessage{
		{Role: "system", Content: decisionPrompt},
		{Role: "user", Content: question},
	}

	for turn.Rounds < a.maxRounds {
		turn.Rounds++
		turn.State = domain.StateAwaitingDecision

		reply, err := a.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: a.temperature})
		if err != nil {
			turn.State = domain.StateDone
			return turn, fmt.Errorf("agent round %d: %w", turn.Rounds, err)
		}

		d, err := parseDecision(reply)
		if err != nil {
			turn.State = domain.StateDone
			return turn, err
		}

		if d.Answer != "" {
			turn.State = domain.StateAnswering
			turn.Answer = d.Answer
			turn.State = domain.StateDone
			logger.Debug("Turn %s answered after %d round(s)", turn.ID, turn.Rounds)
			return turn, nil
		}

		if !a.tools.Has(d.Tool) {
			turn.State = domain.StateDone
			return turn, fmt.Errorf("%w: model selected %q", domain.ErrToolSelection, d.Tool)
		}

		turn.State = domain.StateToolInvoked
		logger.Debug("Round %d: %s(%q)", turn.Rounds, d.Tool, d.Input)

		observation, err := a.tools.Dispatch(ctx, d.Tool, d.Input)
		if err != nil {
			turn.State = domain.StateDone
			// A bad tool argument is the model's mistake, not the
			// caller's: classify it with the other decision failures
			// so the caller can degrade instead of surfacing it.
			if errors.Is(err, domain.ErrInvalidArgument) {
				return turn, fmt.Errorf("%w: tool %s rejected input %q: %v",
					domain.ErrToolSelection, d.Tool, d.Input, err)
			}
			return turn, fmt.Errorf("tool %s: %w", d.Tool, err)
		}

		turn.State = domain.StateObserving
		turn.Invocations = append(turn.Invocations, domain.ToolInvocation{
			Tool:        d.Tool,
			Input:       d.Input,
			Observation: observation,
		})

		messages = append(messages,
			driven.ChatMessage{Role: "assistant", Content: reply},
			driven.ChatMessage{Role: "user", Content: "Observation:\n" + observation},
		)
	}

	// Round limit reached: force an answer from what was gathered.
	return a.forceAnswer(ctx, turn)
}

// forceAnswer asks the model for a final answer with tools withheld.
func (a *Agent) forceAnswer(ctx context.Context, turn *domain.AgentTurn) (*domain.AgentTurn, error) {
	turn.State = domain.StateAnswering
	logger.Debug("Turn %s hit round limit, forcing answer", turn.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", turn.Question)
	if len(turn.Invocations) == 0 {
		b.WriteString("No tool observations were gathered.\n")
	}
	for _, inv := range turn.Invocations {
		fmt.Fprintf(&b, "Observation from %s(%q):\n%s\n\n", inv.Tool, inv.Input, inv.Observation)
	}
	b.WriteString("Answer the question now from these observations only. Respond with plain text, not JSON.")

	answer, err := a.llm.Generate(ctx, b.String(), driven.GenerateOptions{Temperature: a.temperature})
	if err != nil {
		turn.State = domain.StateDone
		return turn, fmt.Errorf("forcing answer: %w", err)
	}

	turn.Answer = strings.TrimSpace(answer)
	turn.State = domain.StateDone
	return turn, nil
}

// parseDecision extracts the JSON decision object from model output.
// Models sometimes wrap JSON in code fences or prose, so the first
// balanced object is taken.
func parseDecision(reply string) (decision, error) {
	raw := extractJSON(reply)
	if raw == "" {
		return decision{}, fmt.Errorf("%w: no JSON decision in model output", domain.ErrToolSelection)
	}

	var d decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return decision{}, fmt.Errorf("%w: malformed decision: %v", domain.ErrToolSelection, err)
	}

	if d.Answer == "" && d.Tool == "" {
		return decision{}, fmt.Errorf("%w: decision names neither tool nor answer", domain.ErrToolSelection)
	}
	return d, nil
}

// extractJSON returns the first balanced JSON object in s, respecting
// string literals and escapes.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// IsRecoverable reports whether an agent failure should degrade to the
// retrieval-only path rather than surface.
func IsRecoverable(err error) bool {
	return errors.Is(err, domain.ErrProvider) ||
		errors.Is(err, domain.ErrToolSelection) ||
		errors.Is(err, domain.ErrTimeout) ||
		errors.Is(err, domain.ErrAgentUnavailable)
}
