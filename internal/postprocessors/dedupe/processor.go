// Package dedupe drops repeated chunks, such as navigation text that
// appears on every section of an ingested web page.
package dedupe

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// Processor removes chunks whose text, compared case-insensitively with
// whitespace collapsed, already appeared earlier in the same document.
type Processor struct {
	minLength int
}

// Option configures the processor.
type Option func(*Processor)

// WithMinLength drops chunks shorter than n characters.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minLength = n
		}
	}
}

// New creates a dedupe processor.
func New(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dedupe"
}

// Process keeps the first occurrence of each distinct chunk.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	seen := make(map[string]struct{}, len(chunks))
	kept := chunks[:0:0]
	for _, chunk := range chunks {
		key := strings.ToLower(strings.Join(strings.Fields(chunk.Content), " "))
		if key == "" || utf8.RuneCountInString(key) < p.minLength {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, chunk)
	}
	return kept, nil
}
