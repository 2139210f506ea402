package list

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

func makeHits(n int) []domain.ChunkHit {
	hits := make([]domain.ChunkHit, n)
	for i := range hits {
		hits[i] = domain.ChunkHit{
			Chunk: domain.Chunk{
				ID:         fmt.Sprintf("doc-%d-0", i),
				DocumentID: fmt.Sprintf("doc-%d", i),
				Content:    fmt.Sprintf("passage number %d", i),
			},
			DocumentTitle: fmt.Sprintf("Document %d", i),
			Score:         1.0 / float64(i+1),
		}
	}
	return hits
}

func TestNewHitList(t *testing.T) {
	l := NewHitList(nil)

	require.NotNil(t, l)
	assert.NotNil(t, l.styles)
	assert.True(t, l.IsEmpty())
	assert.Equal(t, 80, l.Width())
	assert.Equal(t, 10, l.Height())
	assert.Nil(t, l.Init())
}

func TestHitList_View_Empty(t *testing.T) {
	assert.Contains(t, NewHitList(nil).View(), "No results")
}

func TestHitList_View_RendersHits(t *testing.T) {
	l := NewHitList(nil)
	l.SetDimensions(100, 20)
	l.SetHits(makeHits(2))

	view := l.View()

	assert.Contains(t, view, "Results (2)")
	assert.Contains(t, view, "Document 0 #0")
	assert.Contains(t, view, "passage number 1")
	assert.Contains(t, view, "1.000")
	assert.Contains(t, view, "> ")
}

func TestHitList_View_UntitledAndLongPreview(t *testing.T) {
	l := NewHitList(nil)
	l.SetDimensions(40, 10)
	l.SetHits([]domain.ChunkHit{{
		Chunk: domain.Chunk{Content: strings.Repeat("word\n", 50)},
	}})

	view := l.View()

	assert.Contains(t, view, "(Untitled)")
	assert.Contains(t, view, "...")
	assert.NotContains(t, view, "word\nword")
}

func TestHitList_View_ScrollsToSelection(t *testing.T) {
	l := NewHitList(nil)
	l.SetDimensions(80, 10)
	l.SetHits(makeHits(10))
	l.SetSelected(8)

	view := l.View()

	assert.Contains(t, view, "Document 8")
	assert.NotContains(t, view, "Document 0 ")
}

func TestHitList_Navigation(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(makeHits(3))

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, l.Selected())

	l.MoveDown()
	assert.Equal(t, 2, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, l.Selected())
}

func TestHitList_SetSelected_OutOfRange(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(makeHits(2))

	l.SetSelected(5)
	assert.Equal(t, 0, l.Selected())
	l.SetSelected(-1)
	assert.Equal(t, 0, l.Selected())
}

func TestHitList_SelectedHit(t *testing.T) {
	l := NewHitList(nil)
	assert.Nil(t, l.SelectedHit())

	l.SetHits(makeHits(3))
	l.SetSelected(2)

	hit := l.SelectedHit()
	require.NotNil(t, hit)
	assert.Equal(t, "doc-2", hit.Chunk.DocumentID)
}

func TestHitList_SetHits_ResetsSelection(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(makeHits(3))
	l.SetSelected(2)

	l.SetHits(makeHits(4))

	assert.Equal(t, 0, l.Selected())
	assert.Equal(t, 4, l.Count())
	assert.Len(t, l.Hits(), 4)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", clip("éééééééé", 6))
}
