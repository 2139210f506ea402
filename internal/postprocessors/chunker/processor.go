// Package chunker provides a sentence-boundary text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// Processor packs whole sentences into chunks of at most chunkSize
// characters. A sentence longer than the budget is split between words,
// and a single word longer than the budget is cut.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured budget.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	pieces := p.Split(doc.Content)
	if len(pieces) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    piece,
			Index:      i,
		})
	}

	return chunks, nil
}

// Split returns the chunk texts for content.
func (p *Processor) Split(content string) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
	)

	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, sentence := range sentences(content) {
		for _, part := range p.fit(sentence) {
			n := utf8.RuneCountInString(part)
			if size > 0 && size+1+n > p.chunkSize {
				flush()
			}
			if size > 0 {
				current.WriteByte(' ')
				size++
			}
			current.WriteString(part)
			size += n
		}
	}
	flush()

	return chunks
}

// fit breaks a sentence that exceeds the budget into word runs that don't.
func (p *Processor) fit(sentence string) []string {
	if utf8.RuneCountInString(sentence) <= p.chunkSize {
		return []string{sentence}
	}

	var parts []string
	var current []rune
	for _, word := range strings.Fields(sentence) {
		w := []rune(word)
		for len(w) > p.chunkSize {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = nil
			}
			parts = append(parts, string(w[:p.chunkSize]))
			w = w[p.chunkSize:]
		}
		if len(current) > 0 && len(current)+1+len(w) > p.chunkSize {
			parts = append(parts, string(current))
			current = nil
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, w...)
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}

// sentences splits text after '.', '!' or '?' followed by whitespace, and
// at blank lines. Whitespace inside a sentence is collapsed.
func sentences(text string) []string {
	var out []string
	var current []string

	emit := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		for _, word := range strings.FieldsFunc(para, unicode.IsSpace) {
			current = append(current, word)
			if endsSentence(word) {
				emit()
			}
		}
		emit()
	}
	return out
}

func endsSentence(word string) bool {
	last, _ := utf8.DecodeLastRuneInString(strings.TrimRight(word, `"')]`))
	return last == '.' || last == '!' || last == '?'
}
