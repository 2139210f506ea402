// Package mcp exposes siteassist over the Model Context Protocol so AI
// assistants can resolve questions, search the knowledge base and drive
// caller verification.
package mcp

import "errors"

// ErrMissingKnowledgeService is returned when the knowledge service is not provided.
var ErrMissingKnowledgeService = errors.New("mcp: knowledge service is required")

// ErrNoEvent is returned when a verification turn carries no caller event.
var ErrNoEvent = errors.New("mcp: one of utterance, digits, sensitive_request or hangup is required")
