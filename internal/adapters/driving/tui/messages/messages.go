// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the conversation with the assistant.
	ViewChat
	// ViewSearch ranks document passages.
	ViewSearch
	// ViewDocuments lists knowledge documents.
	ViewDocuments
	// ViewDocContent shows document content.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// AnswerReceived carries the resolver's answer to a chat message.
type AnswerReceived struct {
	Query      string
	Resolution domain.Resolution
	Err        error
}

// SearchCompleted carries ranked passages back to the model.
type SearchCompleted struct {
	Query string
	Hits  []domain.ChunkHit
	Err   error
}

// StatusLoaded carries knowledge base counts for the status bar.
type StatusLoaded struct {
	Status domain.KnowledgeStatus
	Err    error
}

// DocumentsLoaded carries the list of documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	DocumentID string
}

// DocumentLoaded carries a document with its chunks.
type DocumentLoaded struct {
	Document *domain.Document
	Chunks   []domain.Chunk
	Err      error
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
