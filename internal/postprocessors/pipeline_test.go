package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// mockProcessor is a test processor that returns predefined chunks.
type mockProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.chunks != nil {
		return m.chunks, nil
	}
	return chunks, nil
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}

	p.Add(&mockProcessor{name: "first"})
	p.Add(&mockProcessor{name: "second"})

	names := p.Names()
	if len(names) != 2 || names[0] != "first" || names[1] != "second" {
		t.Errorf("unexpected processor order %v", names)
	}
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	p := NewPipeline()

	_, err := p.Process(context.Background(), nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	p := NewPipeline()

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc-1", Content: "text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks != nil {
		t.Errorf("expected nil chunks from empty pipeline, got %v", chunks)
	}
}

func TestPipeline_Process_StampsDocumentAndIndex(t *testing.T) {
	p := NewPipeline(
		&mockProcessor{name: "chunker", chunks: []domain.Chunk{
			{ID: "c1", Content: "first", Index: 4},
			{ID: "c2", Content: "second", Index: 9},
		}},
		&mockProcessor{name: "passthrough"},
	)

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc-1", Content: "text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %s: expected index %d, got %d", chunk.ID, i, chunk.Index)
		}
		if chunk.DocumentID != "doc-1" {
			t.Errorf("chunk %s: expected document doc-1, got %q", chunk.ID, chunk.DocumentID)
		}
	}
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	expectedErr := errors.New("processor failed")
	p := NewPipeline(&mockProcessor{name: "failing", err: expectedErr})

	_, err := p.Process(context.Background(), &domain.Document{ID: "doc-1", Content: "text"})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func TestDefaultPipeline(t *testing.T) {
	p, err := DefaultPipeline(20)
	if err != nil {
		t.Fatalf("DefaultPipeline failed: %v", err)
	}
	if names := p.Names(); len(names) != 2 || names[0] != "chunker" || names[1] != "dedupe" {
		t.Errorf("unexpected processors %v", names)
	}

	doc := &domain.Document{ID: "doc-1", Content: "Call us today. We open at nine. Call us today."}
	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Call us today.", "We open at nine."}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if chunk.Content != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunk.Content)
		}
		if chunk.Index != i {
			t.Errorf("expected index %d, got %d", i, chunk.Index)
		}
	}
}
