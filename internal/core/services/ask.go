package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driving"
	"github.com/runehall/lorebook/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskService answers questions over an indexed book, preferring the
// agent loop and degrading to direct retrieval when the agent cannot
// serve.
type AskService struct {
	agent     *Agent // nil when no LLM is configured or reachable
	retriever *RetrieverService
	k         int
}

// NewAskService creates an ask service. agent may be nil, in which
// case every question takes the retrieval-only path.
func NewAskService(agent *Agent, retriever *RetrieverService, k int) *AskService {
	if k <= 0 {
		k = domain.DefaultK
	}
	return &AskService{
		agent:     agent,
		retriever: retriever,
		k:         k,
	}
}

// Ask answers a question in the given mode.
func (s *AskService) Ask(ctx context.Context, question string, mode domain.AskMode) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidArgument)
	}
	if !mode.IsValid() {
		return domain.Answer{}, fmt.Errorf("%w: unknown ask mode %q", domain.ErrInvalidArgument, mode)
	}

	if mode == domain.AskModeBasic {
		text, err := s.retrieveDirectly(ctx, question)
		if err != nil {
			return domain.Answer{}, err
		}
		return domain.Answer{Text: text}, nil
	}

	if s.agent == nil {
		logger.Debug("No agent available, degrading to retrieval")
		return s.degrade(ctx, question)
	}

	turn, err := s.agent.Run(ctx, question)
	if err != nil {
		if !IsRecoverable(err) {
			return domain.Answer{}, err
		}
		logger.Warn("Agent turn failed (%v), degrading to retrieval", err)
		return s.degrade(ctx, question)
	}

	return domain.Answer{Text: turn.Answer, Turn: turn}, nil
}

// degrade serves the question by direct retrieval and labels the
// answer accordingly.
func (s *AskService) degrade(ctx context.Context, question string) (domain.Answer, error) {
	text, err := s.retrieveDirectly(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{Text: text, Degraded: true}, nil
}

// retrieveDirectly renders the top retrieval hits as "[Page N]: text"
// passages without any model synthesis.
func (s *AskService) retrieveDirectly(ctx context.Context, question string) (string, error) {
	results, err := s.retriever.Retrieve(ctx, question, s.k)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoRelevantContent, nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Page %s]: %s", r.Chunk.Page, strings.TrimSpace(r.Chunk.Content))
	}
	return b.String(), nil
}
