// Package keymap defines keybindings for the TUI.
package keymap

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the bindings shared by the menu, chat, search and documents
// views. Enter means something different in each view, so it is bound
// several times with view-specific help.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	// Navigate only labels Up and Down together in help lines.
	Navigate key.Binding

	// Select opens a menu entry or confirms a document action.
	Select key.Binding

	// Actions opens the action menu for the highlighted document.
	Actions key.Binding

	// Send asks the assistant the typed question.
	Send key.Binding

	// Open shows the document behind a search hit.
	Open key.Binding

	// NewSearch clears the results and refocuses the query.
	NewSearch key.Binding

	// Reload re-reads the document list.
	Reload key.Binding

	// Back leaves the current view; Cancel closes an action menu.
	Back   key.Binding
	Cancel key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Navigate: key.NewBinding(
			key.WithKeys("up", "down", "k", "j"),
			key.WithHelp("↑/↓", "navigate"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Actions: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "actions"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ask"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		NewSearch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new search"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// MenuHelp returns keybindings for the main menu.
func (k *KeyMap) MenuHelp() []key.Binding {
	return []key.Binding{k.Navigate, k.Select, k.Quit}
}

// ChatHelp returns keybindings for the chat view.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.Back}
}

// ResultsHelp returns keybindings for search results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewSearch, k.Navigate, k.Open, k.Back}
}

// DocumentsHelp returns keybindings for the document list.
func (k *KeyMap) DocumentsHelp() []key.Binding {
	return []key.Binding{k.Navigate, k.Actions, k.Reload, k.Back}
}

// ActionHelp returns keybindings for a document's action menu.
func (k *KeyMap) ActionHelp() []key.Binding {
	return []key.Binding{k.Navigate, k.Select, k.Cancel}
}

// IdleHelp returns the bindings shown when nothing more specific applies.
func (k *KeyMap) IdleHelp() []key.Binding {
	return []key.Binding{k.Back, k.Quit}
}

// Hints renders bindings as "[key] desc" pairs for a view footer.
func Hints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return strings.Join(parts, "  ")
}
