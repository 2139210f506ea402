package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// ResolveInput is the input schema for resolve_query.
type ResolveInput struct {
	Query string `json:"query" jsonschema:"the visitor's question"`
}

// ResolveOutput is the single best answer, if any.
type ResolveOutput struct {
	Found      bool    `json:"found"`
	Answer     string  `json:"answer"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	MatchID    string  `json:"match_id"`
	MatchTitle string  `json:"match_title"`
}

// SearchInput is the input schema for search_knowledge.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
}

// SearchOutput is the output schema for search_knowledge.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is one ranked passage.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// StatusInput takes no arguments.
type StatusInput struct{}

// StatusOutput summarises the knowledge base.
type StatusOutput struct {
	Intents     int    `json:"intents"`
	Documents   int    `json:"documents"`
	Chunks      int    `json:"chunks"`
	VectorReady bool   `json:"vector_ready"`
	VectorCount int    `json:"vector_count"`
	VectorModel string `json:"vector_model"`
}

// StartVerificationInput opens a verification session for a call.
type StartVerificationInput struct {
	CallID string `json:"call_id" jsonschema:"unique identifier of the call"`
	Phone  string `json:"phone" jsonschema:"caller phone number that receives the SMS code"`
}

// TurnInput feeds one caller event to a session. Exactly one event field
// should be set; hangup wins over the others.
type TurnInput struct {
	CallID           string `json:"call_id" jsonschema:"identifier passed to start_verification"`
	Utterance        string `json:"utterance,omitempty" jsonschema:"transcribed caller speech"`
	Digits           string `json:"digits,omitempty" jsonschema:"keypad digits entered by the caller"`
	SensitiveRequest string `json:"sensitive_request,omitempty" jsonschema:"a request that needs authenticator verification, such as an account balance"`
	Hangup           bool   `json:"hangup,omitempty" jsonschema:"end the call"`
}

// TurnOutput is what the agent does next.
type TurnOutput struct {
	CallID  string   `json:"call_id"`
	State   string   `json:"state"`
	Path    []string `json:"path"`
	Prompt  string   `json:"prompt"`
	Action  string   `json:"action"`
	Payload string   `json:"payload"`
	Reason  string   `json:"reason"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_query",
		Description: "Answer a visitor question from the site's intents and documents",
	}, s.handleResolve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Rank document passages against a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "knowledge_status",
		Description: "Report how many intents, documents and chunks are loaded",
	}, s.handleStatus)

	if s.ports.Verification == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "start_verification",
		Description: "Start verifying a caller's identity; returns the greeting to speak",
	}, s.handleStartVerification)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "verification_turn",
		Description: "Feed caller speech, digits, a sensitive request or a hangup to a verification session",
	}, s.handleVerificationTurn)
}

func (s *Server) handleResolve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveInput,
) (*mcp.CallToolResult, ResolveOutput, error) {
	res, err := s.ports.Knowledge.Resolve(ctx, input.Query)
	if err != nil {
		return nil, ResolveOutput{}, err
	}
	return nil, ResolveOutput{
		Found:      res.Found,
		Answer:     res.Answer,
		Score:      res.Score,
		Source:     res.Source.String(),
		MatchID:    res.MatchID,
		MatchTitle: res.MatchTitle,
	}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, err := s.ports.Knowledge.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i, hit := range hits {
		output.Results[i] = SearchResultOutput{
			DocumentID: hit.Chunk.DocumentID,
			Title:      hit.DocumentTitle,
			ChunkIndex: hit.Chunk.Index,
			Content:    hit.Chunk.Content,
			Score:      hit.Score,
		}
	}
	return nil, output, nil
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.Knowledge.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		Intents:     status.Intents,
		Documents:   status.Documents,
		Chunks:      status.Chunks,
		VectorReady: status.Vector.Ready,
		VectorCount: status.Vector.Count,
		VectorModel: status.Vector.ModelID,
	}, nil
}

func (s *Server) handleStartVerification(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StartVerificationInput,
) (*mcp.CallToolResult, TurnOutput, error) {
	turn, err := s.ports.Verification.Start(ctx, input.CallID, input.Phone)
	if err != nil {
		return nil, TurnOutput{}, err
	}
	return nil, turnOutput(turn), nil
}

func (s *Server) handleVerificationTurn(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TurnInput,
) (*mcp.CallToolResult, TurnOutput, error) {
	v := s.ports.Verification

	var turn domain.Turn
	var err error
	switch {
	case input.Hangup:
		turn, err = v.Hangup(ctx, input.CallID)
	case strings.TrimSpace(input.Digits) != "":
		turn, err = v.HandleDigits(ctx, input.CallID, input.Digits)
	case strings.TrimSpace(input.SensitiveRequest) != "":
		turn, err = v.HandleSensitiveRequest(ctx, input.CallID, input.SensitiveRequest)
	case strings.TrimSpace(input.Utterance) != "":
		turn, err = v.HandleUtterance(ctx, input.CallID, input.Utterance)
	default:
		return nil, TurnOutput{}, ErrNoEvent
	}
	if err != nil {
		return nil, TurnOutput{}, err
	}
	return nil, turnOutput(turn), nil
}

func turnOutput(turn domain.Turn) TurnOutput {
	path := make([]string, len(turn.Path))
	for i, state := range turn.Path {
		path[i] = state.String()
	}
	return TurnOutput{
		CallID:  turn.SessionID,
		State:   turn.State.String(),
		Path:    path,
		Prompt:  turn.Prompt,
		Action:  string(turn.Action.Kind),
		Payload: turn.Action.Payload,
		Reason:  turn.Reason,
	}
}
