package services

import (
	"strings"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// Document match weights. A token found in the title counts twice as much
// as one found in the content.
const (
	titleWeight   = 2.0
	contentWeight = 1.0
)

// LexicalScorer scores queries against intents and documents using
// substring containment and word overlap. Scores are within [0,1].
type LexicalScorer struct {
	keywordContain float64
	nameContain    float64
	minQueryLength int
}

// NewLexicalScorer creates a scorer from knowledge settings.
func NewLexicalScorer(settings domain.KnowledgeSettings) *LexicalScorer {
	return &LexicalScorer{
		keywordContain: settings.KeywordContainScore,
		nameContain:    settings.NameContainScore,
		minQueryLength: settings.MinQueryLength,
	}
}

// lexicalQuery is a query normalised once for scoring against many candidates.
type lexicalQuery struct {
	text   string
	tokens []string
}

func (s *LexicalScorer) prepare(query string) (lexicalQuery, bool) {
	text := normalise(query)
	if len([]rune(text)) < s.minQueryLength {
		return lexicalQuery{}, false
	}
	return lexicalQuery{text: text, tokens: queryTokens(text)}, true
}

// Score scores a query against a keyword or pattern.
func (s *LexicalScorer) Score(query, candidate string) float64 {
	q, ok := s.prepare(query)
	if !ok {
		return 0
	}
	return s.scoreCandidate(q, normalise(candidate), s.keywordContain)
}

// ScoreIntent scores a query against an intent's keywords, patterns and name
// and returns the best of them.
func (s *LexicalScorer) ScoreIntent(query string, intent domain.Intent) float64 {
	q, ok := s.prepare(query)
	if !ok {
		return 0
	}
	return s.scoreIntent(q, intent)
}

// ScoreDocument scores a query against a document's title, content and keywords.
func (s *LexicalScorer) ScoreDocument(query string, doc domain.Document) float64 {
	q, ok := s.prepare(query)
	if !ok {
		return 0
	}
	return s.scoreDocument(q, doc)
}

func (s *LexicalScorer) scoreIntent(q lexicalQuery, intent domain.Intent) float64 {
	best := s.scoreCandidate(q, normalise(intent.Name), s.nameContain)
	for _, kw := range intent.Keywords {
		best = max(best, s.scoreCandidate(q, kw, s.keywordContain))
	}
	for _, p := range intent.Patterns {
		best = max(best, s.scoreCandidate(q, p, s.keywordContain))
	}
	return best
}

func (s *LexicalScorer) scoreDocument(q lexicalQuery, doc domain.Document) float64 {
	best := 0.0
	if len(q.tokens) > 0 {
		title := normalise(doc.Title)
		content := strings.ToLower(doc.Content)
		var total float64
		for _, tok := range q.tokens {
			if strings.Contains(title, tok) {
				total += titleWeight
			}
			if strings.Contains(content, tok) {
				total += contentWeight
			}
		}
		best = total / (float64(len(q.tokens)) * (titleWeight + contentWeight))
	}
	for _, kw := range doc.Keywords {
		best = max(best, s.scoreCandidate(q, normalise(kw), s.keywordContain))
	}
	return best
}

// scoreCandidate applies containment then word overlap; the larger wins.
// Candidates shorter than the minimum query length never count as contained,
// otherwise a one-letter keyword would match almost every query.
func (s *LexicalScorer) scoreCandidate(q lexicalQuery, candidate string, containScore float64) float64 {
	if candidate == "" {
		return 0
	}

	score := 0.0
	if len([]rune(candidate)) >= s.minQueryLength &&
		(strings.Contains(q.text, candidate) || strings.Contains(candidate, q.text)) {
		score = containScore
	}

	if len(q.tokens) > 0 {
		matched := 0
		for _, tok := range q.tokens {
			if strings.Contains(candidate, tok) {
				matched++
			}
		}
		score = max(score, float64(matched)/float64(len(q.tokens)))
	}

	return score
}
