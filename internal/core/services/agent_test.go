package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runehall/lorebook/internal/core/domain"
)

func TestAgentRun(t *testing.T) {
	ctx := context.Background()

	t.Run("immediate answer", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 4000)
		llm := &mockLLM{replies: []string{
			`{"answer": "Initiative is rolled with a d20."}`,
		}}

		agent := NewAgent(llm, tools, 4, 0)
		turn, err := agent.Run(ctx, "How is initiative rolled?")
		require.NoError(t, err)
		assert.Equal(t, domain.StateDone, turn.State)
		assert.Equal(t, "Initiative is rolled with a d20.", turn.Answer)
		assert.Equal(t, 1, turn.Rounds)
		assert.Empty(t, turn.Invocations)
		assert.NotEmpty(t, turn.ID)
	})

	t.Run("tool call then answer", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 4000)
		llm := &mockLLM{replies: []string{
			`{"tool": "search", "input": "initiative"}`,
			`{"answer": "A d20, per page 10."}`,
		}}

		agent := NewAgent(llm, tools, 4, 0)
		turn, err := agent.Run(ctx, "How is initiative rolled?")
		require.NoError(t, err)
		assert.Equal(t, "A d20, per page 10.", turn.Answer)
		assert.Equal(t, 2, turn.Rounds)
		require.Len(t, turn.Invocations, 1)
		assert.Equal(t, ToolSearch, turn.Invocations[0].Tool)
		assert.Equal(t, "initiative", turn.Invocations[0].Input)
		assert.Contains(t, turn.Invocations[0].Observation, "[10]")

		// The observation was threaded back into the conversation.
		last := llm.lastMessages[len(llm.lastMessages)-1]
		assert.Equal(t, "user", last.Role)
		assert.Contains(t, last.Content, "Observation:")
	})

	t.Run("fenced JSON is accepted", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 4000)
		llm := &mockLLM{replies: []string{
			"```json\n{\"answer\": \"Yes.\"}\n```",
		}}

		agent := NewAgent(llm, tools, 4, 0)
		turn, err := agent.Run(ctx, "Can a bard rage?")
		require.NoError(t, err)
		assert.Equal(t, "Yes.", turn.Answer)
	})

	t.Run("undeclared tool fails the turn", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 4000)
		llm := &mockLLM{replies: []string{
			`{"tool": "delete_collection", "input": "rules"}`,
		}}

		agent := NewAgent(llm, tools, 4, 0)
		turn, err := agent.Run(ctx, "Anything")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrToolSelection))
		assert.Equal(t, domain.StateDone, turn.State)
	})

	t.Run("non-JSON output fails the turn", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 4000)
		llm := &mockLLM{replies: []string{"I think the answer is probably a d20."}}

		agent := NewAgent(llm, tools, 4, 0)
		_, err := agent.Run(ctx, "Anything")
		assert.True(t, errors.Is(err, domain.ErrToolSelection))
	})

	t.Run("round limit forces an answer from observations", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 4000)
		llm := &mockLLM{
			replies: []string{
				`{"tool": "search", "input": "initiative"}`,
				`{"tool": "search", "input": "surprise"}`,
			},
			generateOut: "Gathered: initiative uses a d20.",
		}

		agent := NewAgent(llm, tools, 2, 0)
		turn, err := agent.Run(ctx, "How does combat start?")
		require.NoError(t, err)
		assert.Equal(t, domain.StateDone, turn.State)
		assert.Equal(t, 2, turn.Rounds)
		assert.Equal(t, "Gathered: initiative uses a d20.", turn.Answer)
		assert.Len(t, turn.Invocations, 2)
	})

	t.Run("chat failure surfaces for fallback", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 4000)
		llm := &mockLLM{chatErr: domain.ErrProvider}

		agent := NewAgent(llm, tools, 4, 0)
		_, err := agent.Run(ctx, "Anything")
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
	})
}

func TestParseDecision(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		tool    string
		answer  string
		wantErr bool
	}{
		{name: "plain tool decision", in: `{"tool":"search","input":"grapple"}`, tool: "search"},
		{name: "plain answer", in: `{"answer":"42"}`, answer: "42"},
		{name: "prose around JSON", in: `Sure! {"answer":"42"} Hope that helps.`, answer: "42"},
		{name: "braces inside strings", in: `{"answer":"use {advantage}"}`, answer: "use {advantage}"},
		{name: "empty object", in: `{}`, wantErr: true},
		{name: "no JSON at all", in: `the answer is 42`, wantErr: true},
		{name: "unterminated object", in: `{"answer":"42"`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := parseDecision(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrToolSelection))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.tool, d.Tool)
			assert.Equal(t, tc.answer, d.Answer)
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(domain.ErrProvider))
	assert.True(t, IsRecoverable(domain.ErrToolSelection))
	assert.True(t, IsRecoverable(domain.ErrTimeout))
	assert.True(t, IsRecoverable(domain.ErrAgentUnavailable))
	assert.False(t, IsRecoverable(domain.ErrConfiguration))
	assert.False(t, IsRecoverable(errors.New("disk full")))
}
