// Package tui provides the interactive chat interface over an indexed
// book, following the Elm architecture.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runehall/lorebook/internal/core/domain"
)

// Entry is one question/answer pair in the transcript.
type Entry struct {
	Question string
	Answer   domain.Answer
	Err      error
}

// App is the chat TUI application. It implements tea.Model for use
// with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *Styles

	// mode selects how questions are answered.
	mode domain.AskMode

	// collection names the corpus being chatted with, for the header.
	collection string

	input      textinput.Model
	transcript viewport.Model

	// entries is the completed question/answer history of this session.
	entries []Entry

	// pending is the question currently being answered, empty when idle.
	pending string

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports, collection string, mode domain.AskMode) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if !mode.IsValid() {
		mode = domain.AskModeLLM
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about the book..."
	ti.Focus()
	ti.CharLimit = 500

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     DefaultStyles(),
		mode:       mode,
		collection: collection,
		input:      ti,
		transcript: viewport.New(80, 20),
		width:      80,
		height:     24,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.SetWindowTitle("lorebook - Chat"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			return a, a.submit()
		case tea.KeyPgUp:
			a.transcript.HalfPageUp()
			return a, nil
		case tea.KeyPgDown:
			a.transcript.HalfPageDown()
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case AnswerReceived:
		a.pending = ""
		a.entries = append(a.entries, Entry{
			Question: msg.Question,
			Answer:   msg.Answer,
			Err:      msg.Err,
		})
		a.refreshTranscript()
		a.input.Focus()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit dispatches the typed question to the ask service.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.pending != "" {
		return nil
	}

	a.pending = question
	a.input.SetValue("")
	a.input.Blur()
	a.refreshTranscript()

	ctx := a.ctx
	mode := a.mode
	return func() tea.Msg {
		answer, err := a.ports.Ask.Ask(ctx, question, mode)
		return AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// refreshTranscript re-renders the history into the viewport and
// scrolls to the bottom.
func (a *App) refreshTranscript() {
	var b strings.Builder
	for i, e := range a.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(a.styles.Question.Render("You: " + e.Question))
		b.WriteString("\n")
		switch {
		case e.Err != nil:
			b.WriteString(a.styles.Error.Render("Error: " + e.Err.Error()))
		case e.Answer.Degraded:
			b.WriteString(a.styles.Warning.Render("(LLM unavailable - showing the most relevant passages)"))
			b.WriteString("\n")
			b.WriteString(a.styles.Answer.Render(e.Answer.Text))
		default:
			b.WriteString(a.styles.Answer.Render(e.Answer.Text))
		}
	}
	if a.pending != "" {
		if len(a.entries) > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(a.styles.Question.Render("You: " + a.pending))
		b.WriteString("\n")
		b.WriteString(a.styles.Muted.Render("Thinking..."))
	}

	a.transcript.SetContent(b.String())
	a.transcript.GotoBottom()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := a.styles.Title.Render("lorebook") +
		a.styles.Muted.Render(fmt.Sprintf("  %s  (%s mode)", a.collection, a.mode))

	help := a.styles.Help.Render("enter ask · pgup/pgdn scroll · esc quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		a.transcript.View(),
		"",
		a.styles.InputField.Width(a.width-2).Render(a.input.View()),
		help,
	)
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.input.Width = width - 6
	a.transcript.Width = width
	// Reserve space for header, input box and help line.
	a.transcript.Height = max(height-7, 3)
	a.refreshTranscript()
}

// Entries returns the completed transcript (for testing).
func (a *App) Entries() []Entry {
	return a.entries
}

// Pending returns the in-flight question, empty when idle.
func (a *App) Pending() string {
	return a.pending
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}
