// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// Item is a single menu entry. Entries with a Needs check are disabled
// while the knowledge base cannot serve them.
type Item struct {
	Label string
	View  messages.ViewType
	Quit  bool

	// Needs reports whether the entry has anything to work with.
	Needs func(domain.KnowledgeStatus) bool
	// Detail summarises the relevant counts next to the label.
	Detail func(domain.KnowledgeStatus) string
	// Empty explains a disabled entry when it is chosen.
	Empty string
}

func defaultItems() []Item {
	return []Item{
		{
			Label: "Chat",
			View:  messages.ViewChat,
			Needs: func(s domain.KnowledgeStatus) bool { return s.Intents > 0 || s.Documents > 0 },
			Detail: func(s domain.KnowledgeStatus) string {
				return fmt.Sprintf("%d intents, %d documents", s.Intents, s.Documents)
			},
			Empty: "Nothing to answer from yet. Add intents or a document first.",
		},
		{
			Label: "Search",
			View:  messages.ViewSearch,
			Needs: func(s domain.KnowledgeStatus) bool { return s.Chunks > 0 },
			Detail: func(s domain.KnowledgeStatus) string {
				return fmt.Sprintf("%d passages", s.Chunks)
			},
			Empty: "No passages to search. Add a document with 'siteassist document add'.",
		},
		{
			Label: "Documents",
			View:  messages.ViewDocuments,
			Detail: func(s domain.KnowledgeStatus) string {
				return fmt.Sprintf("%d documents", s.Documents)
			},
		},
		{Label: "Help", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View is the main menu.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool

	// status is nil until the first StatusLoaded; every entry is enabled
	// until then.
	status *domain.KnowledgeStatus
	notice string
}

// NewView creates a new menu view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles: s,
		keymap: km,
		items:  defaultItems(),
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatusLoaded:
		if msg.Err == nil {
			v.SetStatus(msg.Status)
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
		v.notice = ""

	case key.Matches(msg, v.keymap.Down):
		if v.selected < len(v.items)-1 {
			v.selected++
		}
		v.notice = ""

	case key.Matches(msg, v.keymap.Select):
		item := v.items[v.selected]
		if item.Quit {
			return v, tea.Quit
		}
		if !v.Enabled(v.selected) {
			v.notice = item.Empty
			return v, nil
		}
		v.notice = ""
		return v, func() tea.Msg {
			return messages.ViewChanged{View: item.View}
		}

	case key.Matches(msg, v.keymap.Quit):
		return v, tea.Quit
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("SiteAssist"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Website Knowledge Assistant"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		b.WriteString(v.renderItem(i, item))
		b.WriteString("\n")
	}

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(keymap.Hints(v.keymap.MenuHelp())))

	return b.String()
}

func (v *View) renderItem(i int, item Item) string {
	cursor := "  "
	if i == v.selected {
		cursor = "> "
	}

	var detail string
	if v.status != nil && item.Detail != nil {
		detail = "  " + item.Detail(*v.status)
	}

	switch {
	case !v.Enabled(i):
		return cursor + v.styles.Disabled.Render(item.Label+detail)
	case i == v.selected:
		return cursor + v.styles.Selected.Render(item.Label) + v.styles.Muted.Render(detail)
	default:
		return cursor + v.styles.Normal.Render(item.Label) + v.styles.Muted.Render(detail)
	}
}

// SetStatus records knowledge base counts used to enable entries.
func (v *View) SetStatus(status domain.KnowledgeStatus) {
	v.status = &status
	v.notice = ""
}

// Enabled reports whether entry i can be opened.
func (v *View) Enabled(i int) bool {
	if i < 0 || i >= len(v.items) {
		return false
	}
	item := v.items[i]
	if v.status == nil || item.Needs == nil {
		return true
	}
	return item.Needs(*v.status)
}

// Notice returns the message shown after choosing a disabled entry.
func (v *View) Notice() string {
	return v.notice
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries in display order.
func (v *View) Items() []Item {
	return v.items
}
