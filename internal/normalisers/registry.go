package normalisers

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/logger"
	"github.com/custodia-labs/siteassist/internal/normalisers/html"
	"github.com/custodia-labs/siteassist/internal/normalisers/markdown"
	"github.com/custodia-labs/siteassist/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches ingested content by content type and assigns
// document IDs.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]driven.Normaliser
	newID  func() string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[string]driven.Normaliser),
		newID:  func() string { return uuid.New().String() },
	}
}

// Default returns a registry with the plain text, Markdown and HTML
// normalisers registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	return r
}

// Register adds a normaliser for each of its content types. A later
// registration for the same type replaces the earlier one.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ct := range n.SupportedContentTypes() {
		r.byType[baseType(ct)] = n
	}
}

// SupportedContentTypes returns every registered content type, sorted.
func (r *Registry) SupportedContentTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byType))
	for ct := range r.byType {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}

// Normalise runs the normaliser registered for input.ContentType and
// gives the result a fresh ID. Parameters such as charset are ignored
// when matching.
func (r *Registry) Normalise(ctx context.Context, input *domain.DocumentInput) (*domain.Document, error) {
	if input == nil {
		return nil, domain.ErrInvalidInput
	}

	ct := baseType(input.ContentType)
	r.mu.RLock()
	n, ok := r.byType[ct]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: content type %q", domain.ErrUnsupportedType, input.ContentType)
	}

	doc, err := n.Normalise(ctx, input)
	if err != nil {
		return nil, err
	}
	doc.ID = r.newID()
	logger.Debug("Normalised %s document %q (%d chars)", ct, doc.Title, len(doc.Content))
	return doc, nil
}

func baseType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.ToLower(contentType)
}
