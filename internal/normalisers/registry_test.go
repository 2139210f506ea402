package normalisers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

type fakeNormaliser struct {
	types []string
	title string
	err   error
}

func (f *fakeNormaliser) SupportedContentTypes() []string { return f.types }

func (f *fakeNormaliser) Normalise(_ context.Context, input *domain.DocumentInput) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{Title: f.title, Content: input.Content}, nil
}

func TestDefault_SupportedContentTypes(t *testing.T) {
	types := Default().SupportedContentTypes()

	for _, ct := range []string{"text/plain", "text/markdown", "text/html"} {
		assert.Contains(t, types, ct)
	}
	assert.IsIncreasing(t, types)
}

func TestRegistry_DispatchesByContentType(t *testing.T) {
	r := Default()
	ctx := context.Background()

	tests := []struct {
		contentType string
		content     string
		want        string
	}{
		{"text/plain", "Open 9 to 5.", "Open 9 to 5."},
		{"text/markdown", "Open **9 to 5**.", "Open 9 to 5."},
		{"text/html", "<p>Open <em>9 to 5</em>.</p>", "Open 9 to 5."},
		{"text/html; charset=utf-8", "<p>Open 9 to 5.</p>", "Open 9 to 5."},
		{"Text/Markdown", "# Open 9 to 5.", "Open 9 to 5."},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			doc, err := r.Normalise(ctx, &domain.DocumentInput{ContentType: tt.contentType, Content: tt.content})
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Content)
			assert.NotEmpty(t, doc.ID)
		})
	}
}

func TestRegistry_AssignsFreshIDs(t *testing.T) {
	r := Default()
	ctx := context.Background()
	input := &domain.DocumentInput{ContentType: "text/plain", Content: "same"}

	first, err := r.Normalise(ctx, input)
	require.NoError(t, err)
	second, err := r.Normalise(ctx, input)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestRegistry_UnsupportedType(t *testing.T) {
	_, err := Default().Normalise(context.Background(), &domain.DocumentInput{
		ContentType: "application/pdf",
		Content:     "%PDF-1.7",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_NilInput(t *testing.T) {
	_, err := Default().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_LaterRegistrationReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeNormaliser{types: []string{"text/plain"}, title: "first"})
	r.Register(&fakeNormaliser{types: []string{"text/plain"}, title: "second"})

	doc, err := r.Normalise(context.Background(), &domain.DocumentInput{ContentType: "text/plain", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "second", doc.Title)
	assert.Equal(t, []string{"text/plain"}, r.SupportedContentTypes())
}

func TestRegistry_NormaliserError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	r.Register(&fakeNormaliser{types: []string{"text/plain"}, err: boom})

	_, err := r.Normalise(context.Background(), &domain.DocumentInput{ContentType: "text/plain", Content: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestBaseType(t *testing.T) {
	assert.Equal(t, "text/html", baseType("text/html; charset=UTF-8"))
	assert.Equal(t, "text/plain", baseType(" TEXT/PLAIN "))
	assert.Equal(t, "", baseType(""))
}
