package domain

// AnswerSource names which retrieval strategy produced an answer.
type AnswerSource string

// Answer sources.
const (
	SourceNone     AnswerSource = ""
	SourceIntent   AnswerSource = "intent"
	SourceDocument AnswerSource = "document"
	SourceVector   AnswerSource = "vector"
)

// String returns the string representation.
func (s AnswerSource) String() string {
	if s == SourceNone {
		return "none"
	}
	return string(s)
}

// Resolution is the outcome of resolving a query against the knowledge base.
// When Found is false, Score carries the best score observed and Answer is empty.
type Resolution struct {
	Found  bool
	Answer string
	Score  float64
	Source AnswerSource

	// MatchID is the intent name or document ID of the winning candidate.
	MatchID string

	// MatchTitle is the intent name or document title, for display.
	MatchTitle string
}

// KnowledgeStatus summarises the loaded knowledge base.
type KnowledgeStatus struct {
	Intents   int
	Documents int
	Chunks    int
	Vector    VectorStatus
}
