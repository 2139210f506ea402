package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.ChunkSize())
		}
		if DefaultChunkSize != 500 {
			t.Errorf("expected default budget 500, got %d", DefaultChunkSize)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(200))
		if p.ChunkSize() != 200 {
			t.Errorf("expected chunkSize 200, got %d", p.ChunkSize())
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0))
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.ChunkSize())
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p := New()
	for _, content := range []string{"", "   \n\n  "} {
		chunks, err := p.Process(context.Background(), &domain.Document{ID: "test-doc", Content: content}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected 0 chunks for %q, got %d", content, len(chunks))
		}
	}
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p := New(WithChunkSize(100))
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "This is a small piece of content. It has two sentences.",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}
	if chunks[0].DocumentID != doc.ID {
		t.Errorf("expected DocumentID '%s', got '%s'", doc.ID, chunks[0].DocumentID)
	}
	if chunks[0].Content != doc.Content {
		t.Errorf("expected content to match document content, got %q", chunks[0].Content)
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
	if chunks[0].ID == "" {
		t.Error("expected chunk ID to be set")
	}
}

func TestProcessor_Process_SentenceBoundaries(t *testing.T) {
	p := New(WithChunkSize(40))
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "We open at nine. We close at six! Do we ship abroad? Yes, worldwide.",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"We open at nine. We close at six!",
		"Do we ship abroad? Yes, worldwide.",
	}
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

func TestProcessor_Process_ParagraphsEndSentences(t *testing.T) {
	p := New(WithChunkSize(20))
	doc := &domain.Document{ID: "test-doc", Content: "Opening hours\n\nMonday to Friday"}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "Opening hours" {
		t.Errorf("unexpected first chunk %q", chunks[0].Content)
	}
}

func TestProcessor_Process_RespectsBudget(t *testing.T) {
	p := New(WithChunkSize(50))
	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20) +
		strings.Repeat("word ", 40) + strings.Repeat("x", 120)
	doc := &domain.Document{ID: "test-doc", Content: content}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	seenIDs := make(map[string]bool)
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk.Content); n > 50 || n == 0 {
			t.Errorf("chunk %d has %d characters", i, n)
		}
		if seenIDs[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		seenIDs[chunk.ID] = true
		if chunk.Index != i {
			t.Errorf("expected index %d, got %d", i, chunk.Index)
		}
	}
}

func TestProcessor_Split_KeepsEveryWord(t *testing.T) {
	p := New(WithChunkSize(30))
	content := "Refunds are issued within fourteen days of receiving the returned item. Contact support for help."

	joined := strings.Join(p.Split(content), " ")
	if joined != content {
		t.Errorf("expected chunks to rejoin to the original text, got %q", joined)
	}
}

func TestProcessor_Process_IgnoresInputChunks(t *testing.T) {
	p := New(WithChunkSize(100))

	existingChunks := []domain.Chunk{
		{ID: "existing", Content: "should be ignored"},
	}
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "New content to chunk",
	}

	chunks, err := p.Process(context.Background(), doc, existingChunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, chunk := range chunks {
		if chunk.ID == "existing" {
			t.Error("existing chunks should be ignored")
		}
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, &domain.Document{ID: "test-doc", Content: "Some text."}, nil)
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}
