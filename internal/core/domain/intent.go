package domain

import (
	"fmt"
	"strings"
)

// Intent is a canonical question or topic with trigger words and canned
// responses. Intents reaching the scorer always have a name and at least
// one non-empty response.
type Intent struct {
	// Name identifies the intent, e.g. "hours".
	Name string

	// Keywords are lowercase trigger words or phrases.
	Keywords []string

	// Patterns are lowercase example phrasings.
	Patterns []string

	// Responses are the canned answers; the first is used when answering.
	Responses []string
}

// Response returns the answer given when this intent matches.
func (i Intent) Response() string {
	if len(i.Responses) == 0 {
		return ""
	}
	return i.Responses[0]
}

// RawIntent is an intent as authored in a source collection. Authors use
// either a single response or a list of responses.
type RawIntent struct {
	Name      string   `json:"name" yaml:"name"`
	Keywords  []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Patterns  []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Response  string   `json:"response,omitempty" yaml:"response,omitempty"`
	Responses []string `json:"responses,omitempty" yaml:"responses,omitempty"`
}

// Normalise resolves the authored alternatives into an Intent.
// Keywords and patterns are lowercased and trimmed, blank entries are
// dropped, and the single response (if any) comes first.
func (r RawIntent) Normalise() (Intent, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return Intent{}, fmt.Errorf("%w: intent has no name", ErrInvalidInput)
	}

	responses := make([]string, 0, len(r.Responses)+1)
	if s := strings.TrimSpace(r.Response); s != "" {
		responses = append(responses, s)
	}
	for _, resp := range r.Responses {
		if s := strings.TrimSpace(resp); s != "" {
			responses = append(responses, s)
		}
	}
	if len(responses) == 0 {
		return Intent{}, fmt.Errorf("%w: intent %q has no response", ErrInvalidInput, name)
	}

	return Intent{
		Name:      name,
		Keywords:  lowerAll(r.Keywords),
		Patterns:  lowerAll(r.Patterns),
		Responses: responses,
	}, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.ToLower(strings.TrimSpace(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
