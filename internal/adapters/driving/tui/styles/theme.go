// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// Theme is the colour palette. Each answer source has its own tag colour
// so the chat transcript shows at a glance where an answer came from.
type Theme struct {
	Accent    lipgloss.Color
	Highlight lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
	Panel     lipgloss.Color

	IntentTag   lipgloss.Color
	DocumentTag lipgloss.Color
	VectorTag   lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#7C3AED"),
		Highlight: lipgloss.Color("#06B6D4"),
		Text:      lipgloss.Color("#CDD6F4"),
		Muted:     lipgloss.Color("#6C7086"),
		Error:     lipgloss.Color("#F38BA8"),
		Border:    lipgloss.Color("#45475A"),
		Panel:     lipgloss.Color("#181825"),

		IntentTag:   lipgloss.Color("#A6E3A1"),
		DocumentTag: lipgloss.Color("#F9E2AF"),
		VectorTag:   lipgloss.Color("#89B4FA"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style

	// Disabled marks menu entries with nothing behind them yet.
	Disabled lipgloss.Style

	Error      lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style

	// Caller and Assistant label transcript lines in the chat view.
	Caller    lipgloss.Style
	Assistant lipgloss.Style

	// Fallback renders the reply given when no answer is confident enough.
	Fallback lipgloss.Style

	// Source renders the match title and score under an answer.
	Source lipgloss.Style

	sourceTags map[domain.AnswerSource]lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	tag := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Foreground(c)
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Highlight),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Text),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			Background(theme.Accent),

		Disabled: lipgloss.NewStyle().
			Faint(true).
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Panel).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Caller: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Highlight),

		Assistant: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Fallback: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Muted),

		Source: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Muted),

		sourceTags: map[domain.AnswerSource]lipgloss.Style{
			domain.SourceIntent:   tag(theme.IntentTag),
			domain.SourceDocument: tag(theme.DocumentTag),
			domain.SourceVector:   tag(theme.VectorTag),
		},
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// SourceTag returns the style for an answer source label. Unknown sources
// fall back to Source.
func (s *Styles) SourceTag(src domain.AnswerSource) lipgloss.Style {
	if st, ok := s.sourceTags[src]; ok {
		return st
	}
	return s.Source
}
