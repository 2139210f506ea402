// Package tui provides an interactive terminal user interface for siteassist.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces the TUI needs.
type Ports struct {
	// Knowledge answers questions and manages documents.
	Knowledge driving.KnowledgeService

	// SearchLimit caps passages in the search view; zero uses the service default.
	SearchLimit int
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(knowledge driving.KnowledgeService) *Ports {
	return &Ports{Knowledge: knowledge}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Knowledge == nil {
		return ErrMissingKnowledgeService
	}
	if p.SearchLimit < 0 {
		return ErrInvalidPorts
	}
	return nil
}
