package services

import (
	"math"
	"sort"
)

// TFIDFHit is a document ranked by TF-IDF score.
type TFIDFHit struct {
	ID    string
	Score float64
}

// TFIDFIndex is a term-frequency x inverse-document-frequency model over a
// corpus of texts. It has no removal: callers build a new index and swap it
// in when the corpus changes. An index must not be mutated while it is
// being queried.
type TFIDFIndex struct {
	docs []tfidfDoc
	df   map[string]int
}

type tfidfDoc struct {
	id    string
	terms map[string]int
}

// NewTFIDFIndex creates an empty index.
func NewTFIDFIndex() *TFIDFIndex {
	return &TFIDFIndex{df: make(map[string]int)}
}

// AddDocument indexes text under id. Adding the same id twice indexes it twice.
func (x *TFIDFIndex) AddDocument(text, id string) {
	tf := make(map[string]int)
	for _, t := range terms(text) {
		tf[t]++
	}
	for t := range tf {
		x.df[t]++
	}
	x.docs = append(x.docs, tfidfDoc{id: id, terms: tf})
}

// Len returns the number of indexed documents.
func (x *TFIDFIndex) Len() int {
	return len(x.docs)
}

// idf uses add-one smoothing on document frequency, so unseen terms are safe
// and every weight stays positive.
func (x *TFIDFIndex) idf(term string) float64 {
	return 1 + math.Log(float64(len(x.docs))/float64(1+x.df[term]))
}

// Query scores every document against text and returns positive scores in
// descending order, ties kept in insertion order. A limit of zero or less
// returns every hit.
func (x *TFIDFIndex) Query(text string, limit int) []TFIDFHit {
	queryTerms := terms(text)
	if len(queryTerms) == 0 || len(x.docs) == 0 {
		return nil
	}

	weights := make(map[string]float64, len(queryTerms))
	for _, t := range queryTerms {
		if _, ok := weights[t]; !ok {
			weights[t] = x.idf(t)
		}
	}

	var hits []TFIDFHit
	for _, doc := range x.docs {
		var score float64
		for _, t := range queryTerms {
			if n := doc.terms[t]; n > 0 {
				score += float64(n) * weights[t]
			}
		}
		if score > 0 {
			hits = append(hits, TFIDFHit{ID: doc.id, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
