package tui

import (
	"github.com/runehall/lorebook/internal/core/domain"
)

// AnswerReceived carries a completed answer back to the model.
type AnswerReceived struct {
	Question string
	Answer   domain.Answer
	Err      error
}
