package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "siteassist://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "siteassist://documents/doc-456/chunks",
			expected: "",
		},
		{
			name:     "listing URI",
			uri:      "siteassist://documents",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents as JSON", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{
			documents: []domain.Document{
				{ID: "doc-1", Title: "Refund policy", Category: "billing", Keywords: []string{"refund"}},
				{ID: "doc-2", Title: "Shipping", URL: "https://example.com/shipping"},
			},
		}, nil)

		result, err := server.handleDocumentsResource(ctx, readRequest("siteassist://documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var docs []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &docs))
		require.Len(t, docs, 2)
		assert.Equal(t, "doc-1", docs[0]["id"])
		assert.Equal(t, "billing", docs[0]["category"])
		assert.Equal(t, "siteassist://documents/doc-2", docs[1]["uri"])
		assert.Equal(t, "https://example.com/shipping", docs[1]["url"])
	})

	t.Run("empty knowledge base is an empty list", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{}, nil)

		result, err := server.handleDocumentsResource(ctx, readRequest("siteassist://documents"))
		require.NoError(t, err)
		assert.JSONEq(t, "[]", result.Contents[0].Text)
	})

	t.Run("propagates errors", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{err: errors.New("db locked")}, nil)

		_, err := server.handleDocumentsResource(ctx, readRequest("siteassist://documents"))
		assert.ErrorContains(t, err, "db locked")
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns content", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{
			document: &domain.Document{ID: "doc-1", Title: "Refund policy", Content: "Refunds within 30 days."},
		}, nil)

		result, err := server.handleDocumentContentResource(ctx, readRequest("siteassist://documents/doc-1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "Refunds within 30 days.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("bad URI is not found", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{}, nil)

		_, err := server.handleDocumentContentResource(ctx, readRequest("siteassist://documents/a/b"))
		require.Error(t, err)
	})

	t.Run("missing document is not found", func(t *testing.T) {
		server := newTestServer(t, &mockKnowledgeService{err: domain.ErrNotFound}, nil)

		_, err := server.handleDocumentContentResource(ctx, readRequest("siteassist://documents/nope"))
		require.Error(t, err)
	})
}
