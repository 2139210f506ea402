// Package chat provides the conversational view for the TUI. Each line
// the user sends is resolved against the knowledge base and the best
// answer is appended to the transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
)

// ErrNoKnowledgeService indicates that no knowledge service was provided.
var ErrNoKnowledgeService = errors.New("knowledge service is required")

const noAnswer = "Sorry, I couldn't find a confident answer to that."

// Role identifies who wrote a transcript entry.
type Role int

const (
	RoleCaller Role = iota
	RoleAssistant
)

// Entry is one line of the transcript.
type Entry struct {
	Role       Role
	Text       string
	Resolution *domain.Resolution
}

// View is the chat view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.PromptInput
	statusbar *status.Bar

	knowledge driving.KnowledgeService
	ctx       context.Context

	transcript []Entry
	pending    bool
	width      int
	height     int
	ready      bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, knowledge driving.KnowledgeService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetState(status.StateChat)

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewChatInput(s),
		statusbar: bar,
		knowledge: knowledge,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.StatusLoaded:
		if msg.Err == nil {
			v.statusbar.SetKnowledge(msg.Status)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case key.Matches(msg, v.keymap.Send):
		query := strings.TrimSpace(v.input.Value())
		if query == "" || v.pending {
			return v, nil
		}
		v.input.Reset()
		v.transcript = append(v.transcript, Entry{Role: RoleCaller, Text: query})
		v.pending = true
		v.statusbar.SetState(status.StateThinking)
		return v, v.resolve(query)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) resolve(query string) tea.Cmd {
	knowledge, ctx := v.knowledge, v.ctx
	return func() tea.Msg {
		if knowledge == nil {
			return messages.ErrorOccurred{Err: ErrNoKnowledgeService}
		}
		res, err := knowledge.Resolve(ctx, query)
		return messages.AnswerReceived{Query: query, Resolution: res, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false
	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.statusbar.SetState(status.StateChat)
	v.statusbar.SetMessage("")

	res := msg.Resolution
	text := res.Answer
	if !res.Found {
		text = noAnswer
	}
	v.transcript = append(v.transcript, Entry{Role: RoleAssistant, Text: text, Resolution: &res})
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Ask SiteAssist"), ""}
	sections = append(sections, v.renderTranscript())
	sections = append(sections, "", v.input.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderTranscript() string {
	if len(v.transcript) == 0 {
		return v.styles.Muted.Render("Ask anything about the site. Answers come from intents and documents.")
	}

	lines := make([]string, 0, len(v.transcript)*2)
	for _, e := range v.transcript {
		lines = append(lines, v.renderEntry(e)...)
	}
	if v.pending {
		lines = append(lines, v.styles.Muted.Render("…"))
	}

	// Keep the newest lines on screen.
	budget := v.height - 8
	if budget < 1 {
		budget = 1
	}
	if len(lines) > budget {
		lines = lines[len(lines)-budget:]
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderEntry(e Entry) []string {
	wrap := lipgloss.NewStyle().Width(max(v.width-6, 20))
	if e.Role == RoleCaller {
		return []string{v.styles.Caller.Render("You: ") + wrap.Render(e.Text)}
	}

	r := e.Resolution
	if r == nil || !r.Found {
		return []string{v.styles.Assistant.Render("Assistant: ") + v.styles.Fallback.Render(wrap.Render(e.Text))}
	}
	return []string{
		v.styles.Assistant.Render("Assistant: ") + wrap.Render(e.Text),
		"  " + v.styles.SourceTag(r.Source).Render(r.Source.String()) +
			v.styles.Source.Render(fmt.Sprintf(": %s (%.2f)", r.MatchTitle, r.Score)),
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Transcript returns the conversation so far.
func (v *View) Transcript() []Entry {
	return v.transcript
}

// Pending reports whether an answer is outstanding.
func (v *View) Pending() bool {
	return v.pending
}

// Reset clears the transcript and input.
func (v *View) Reset() {
	v.transcript = nil
	v.pending = false
	v.input.Reset()
	v.input.Focus()
	v.statusbar.SetState(status.StateChat)
	v.statusbar.SetMessage("")
}
