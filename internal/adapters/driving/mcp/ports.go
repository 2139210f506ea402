package mcp

import (
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Knowledge answers and searches. Required.
	Knowledge driving.KnowledgeService

	// Verification drives caller verification. When nil the verification
	// tools are not registered.
	Verification driving.VerificationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Knowledge == nil {
		return ErrMissingKnowledgeService
	}
	return nil
}
