package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

func TestDefaultTheme_SourceTagsAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	tags := []lipgloss.Color{theme.IntentTag, theme.DocumentTag, theme.VectorTag, theme.Muted}
	seen := make(map[lipgloss.Color]bool)
	for _, c := range tags {
		assert.NotEmpty(t, string(c))
		assert.False(t, seen[c], "duplicate tag colour %s", c)
		seen[c] = true
	}
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestStyles_SourceTag(t *testing.T) {
	theme := DefaultTheme()
	s := NewStyles(theme)

	tests := []struct {
		source domain.AnswerSource
		want   lipgloss.TerminalColor
	}{
		{domain.SourceIntent, theme.IntentTag},
		{domain.SourceDocument, theme.DocumentTag},
		{domain.SourceVector, theme.VectorTag},
		{domain.SourceNone, theme.Muted},
		{domain.AnswerSource("crawler"), theme.Muted},
	}

	for _, tt := range tests {
		t.Run(tt.source.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, s.SourceTag(tt.source).GetForeground())
		})
	}
}

func TestStyles_ChatStyles(t *testing.T) {
	theme := DefaultTheme()
	s := NewStyles(theme)

	assert.Equal(t, lipgloss.TerminalColor(theme.Highlight), s.Caller.GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Accent), s.Assistant.GetForeground())
	assert.True(t, s.Fallback.GetItalic())
	assert.True(t, s.Disabled.GetFaint())
	assert.Equal(t, lipgloss.TerminalColor(theme.Panel), s.StatusBar.GetBackground())
}

func TestStyles_RenderKeepsText(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"caller":    s.Caller,
		"assistant": s.Assistant,
		"fallback":  s.Fallback,
		"disabled":  s.Disabled,
		"intent":    s.SourceTag(domain.SourceIntent),
	} {
		assert.Contains(t, style.Render("refund policy"), "refund policy", name)
	}
}
