package menu

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/siteassist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/siteassist/internal/core/domain"
)

const (
	chatItem = iota
	searchItem
	documentsItem
	helpItem
	quitItem
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	up    = tea.KeyMsg{Type: tea.KeyUp}
)

func readyView() *View {
	v := NewView(nil, nil)
	v.SetDimensions(100, 30)
	return v
}

func choose(t *testing.T, v *View, index int) tea.Cmd {
	t.Helper()
	for v.Selected() < index {
		v.Update(down)
	}
	for v.Selected() > index {
		v.Update(up)
	}
	require.Equal(t, index, v.Selected())
	_, cmd := v.Update(enter)
	return cmd
}

func TestNewView_Items(t *testing.T) {
	items := NewView(nil, nil).Items()

	tests := []struct {
		label string
		view  messages.ViewType
		quit  bool
	}{
		{"Chat", messages.ViewChat, false},
		{"Search", messages.ViewSearch, false},
		{"Documents", messages.ViewDocuments, false},
		{"Help", messages.ViewHelp, false},
		{"Quit", messages.ViewMenu, true},
	}

	require.Len(t, items, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.label, items[i].Label)
		assert.Equal(t, tt.quit, items[i].Quit)
		if !tt.quit {
			assert.Equal(t, tt.view, items[i].View)
		}
	}
}

func TestView_NavigationStopsAtEnds(t *testing.T) {
	v := readyView()

	v.Update(up)
	assert.Equal(t, chatItem, v.Selected())

	for i := 0; i < 10; i++ {
		v.Update(down)
	}
	assert.Equal(t, quitItem, v.Selected())
}

func TestView_EverythingEnabledBeforeStatus(t *testing.T) {
	v := readyView()

	for i := range v.Items() {
		assert.True(t, v.Enabled(i), v.Items()[i].Label)
	}
	assert.False(t, v.Enabled(-1))
	assert.False(t, v.Enabled(len(v.Items())))

	cmd := choose(t, v, chatItem)
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewChat}, cmd())
}

func TestView_EmptyKnowledgeDisablesChatAndSearch(t *testing.T) {
	v := readyView()
	v.Update(messages.StatusLoaded{Status: domain.KnowledgeStatus{}})

	assert.False(t, v.Enabled(chatItem))
	assert.False(t, v.Enabled(searchItem))
	assert.True(t, v.Enabled(documentsItem))
	assert.True(t, v.Enabled(helpItem))

	assert.Nil(t, choose(t, v, chatItem))
	assert.Contains(t, v.Notice(), "Nothing to answer from yet")
	assert.Contains(t, v.View(), "Nothing to answer from yet")

	assert.Nil(t, choose(t, v, searchItem))
	assert.Contains(t, v.Notice(), "siteassist document add")

	v.Update(up)
	assert.Empty(t, v.Notice(), "moving clears the notice")

	cmd := choose(t, v, documentsItem)
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_IntentsOnlyEnableChat(t *testing.T) {
	v := readyView()
	v.SetStatus(domain.KnowledgeStatus{Intents: 4})

	assert.True(t, v.Enabled(chatItem))
	assert.False(t, v.Enabled(searchItem), "intents are not searchable passages")
}

func TestView_StatusErrorKeepsPreviousStatus(t *testing.T) {
	v := readyView()
	v.SetStatus(domain.KnowledgeStatus{Documents: 1, Chunks: 3})

	v.Update(messages.StatusLoaded{Err: errors.New("store closed")})

	assert.True(t, v.Enabled(searchItem))
}

func TestView_RendersCounts(t *testing.T) {
	v := readyView()
	v.SetStatus(domain.KnowledgeStatus{Intents: 12, Documents: 3, Chunks: 9})

	out := v.View()
	assert.Contains(t, out, "SiteAssist")
	assert.Contains(t, out, "Website Knowledge Assistant")
	assert.Contains(t, out, "12 intents, 3 documents")
	assert.Contains(t, out, "9 passages")
	assert.Contains(t, out, "3 documents")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "[↑/↓] navigate  [enter] select  [q] quit")
}

func TestView_RendersWithoutStatus(t *testing.T) {
	out := readyView().View()

	assert.Contains(t, out, "Chat")
	assert.NotContains(t, out, "intents")
}

func TestView_NotReady(t *testing.T) {
	assert.Equal(t, "Initialising...", NewView(nil, nil).View())
}

func TestView_Quit(t *testing.T) {
	v := readyView()

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cmd = choose(t, v, quitItem)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_WindowSize(t *testing.T) {
	v := NewView(nil, nil)

	updated, cmd := v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Same(t, v, updated)
	assert.Nil(t, cmd)
	assert.Equal(t, 120, v.width)
	assert.Equal(t, 40, v.height)
	assert.True(t, v.ready)
}
