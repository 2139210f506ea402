package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

func newTestScorer() *LexicalScorer {
	return NewLexicalScorer(domain.DefaultSettings().Knowledge)
}

func TestLexicalScorer_Score(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name      string
		query     string
		candidate string
		want      float64
	}{
		{"query contains keyword", "when do you open", "open", 1.0},
		{"keyword contains query", "refund", "refund policy", 1.0},
		{"containment beats partial overlap", "shipping to canada", "shipping to canada please", 1.0},
		{"partial overlap", "refund shipping", "shipping", 0.9},
		{"no overlap", "weather forecast", "hours", 0},
		{"case and whitespace ignored", "  HOURS ", "Hours", 1.0},
		{"query below minimum length", "h", "hours", 0},
		{"empty candidate", "hours", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.Score(tt.query, tt.candidate), 1e-9)
		})
	}
}

func TestLexicalScorer_ScoreWithinUnitRange(t *testing.T) {
	scorer := newTestScorer()
	queries := []string{"hours", "what are your opening hours", "x y z", "refund refund refund"}
	candidates := []string{"hours", "opening hours", "refund", "a"}

	for _, q := range queries {
		for _, c := range candidates {
			score := scorer.Score(q, c)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestLexicalScorer_ShortCandidateNeverContained(t *testing.T) {
	scorer := newTestScorer()

	// "a" is contained in almost every query but is shorter than the minimum.
	assert.Zero(t, scorer.Score("what are your hours", "a"))
}

func TestLexicalScorer_ScoreIntent(t *testing.T) {
	scorer := newTestScorer()

	t.Run("keyword match", func(t *testing.T) {
		intent := domain.Intent{Name: "hours", Keywords: []string{"hours", "open"}}
		assert.InDelta(t, 1.0, scorer.ScoreIntent("what are your hours", intent), 1e-9)
	})

	t.Run("name containment", func(t *testing.T) {
		intent := domain.Intent{Name: "pricing"}
		assert.InDelta(t, 0.85, scorer.ScoreIntent("tell me about pricing plans", intent), 1e-9)
	})

	t.Run("pattern match", func(t *testing.T) {
		intent := domain.Intent{Name: "refund-request", Patterns: []string{"money back"}}
		assert.InDelta(t, 0.9, scorer.ScoreIntent("can i get my money back today", intent), 1e-9)
	})

	t.Run("no match", func(t *testing.T) {
		intent := domain.Intent{Name: "hours", Keywords: []string{"hours"}}
		assert.Zero(t, scorer.ScoreIntent("weather forecast", intent))
	})
}

func TestLexicalScorer_ScoreDocument(t *testing.T) {
	scorer := newTestScorer()
	doc := domain.Document{
		Title:   "Shipping policy",
		Content: "We ship worldwide within 5 days.",
	}

	t.Run("title match weighs double", func(t *testing.T) {
		assert.InDelta(t, 4.0/6.0, scorer.ScoreDocument("shipping policy", doc), 1e-9)
	})

	t.Run("content only", func(t *testing.T) {
		assert.InDelta(t, 1.0/3.0, scorer.ScoreDocument("worldwide", doc), 1e-9)
	})

	t.Run("title and content", func(t *testing.T) {
		d := domain.Document{Title: "Refunds", Content: "Refunds take 14 days."}
		assert.InDelta(t, 1.0, scorer.ScoreDocument("refunds", d), 1e-9)
	})

	t.Run("document keywords", func(t *testing.T) {
		d := domain.Document{Title: "Returns", Content: "Send it back.", Keywords: []string{"refund"}}
		assert.InDelta(t, 0.9, scorer.ScoreDocument("refund please", d), 1e-9)
	})

	t.Run("stopword only query", func(t *testing.T) {
		assert.Zero(t, scorer.ScoreDocument("what is the", doc))
	})
}
