// Package mcptools exposes the intake core as MCP tools.
//
// Each tool is a struct with its dependencies injected via constructor,
// a Definition() returning the mcp.Tool schema and a Handle() that
// processes the call. Results are JSON text.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sells-group/ideaflow/internal/clarify"
	"github.com/sells-group/ideaflow/internal/extract"
	"github.com/sells-group/ideaflow/internal/intake"
	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/resilience"
)

// Intake submits raw text and promotes candidates.
type Intake interface {
	Submit(ctx context.Context, raw model.RawSubmission) (*intake.Outcome, error)
	Promote(ctx context.Context, candidateID string) (*model.Idea, error)
}

// Extractor runs extraction without promotion.
type Extractor interface {
	Extract(ctx context.Context, raw model.RawSubmission) (*model.CandidateIdea, error)
}

// Chain drives clarification chains.
type Chain interface {
	StartChain(ctx context.Context, candidateID, contact string) (*model.ClarificationQuestion, error)
	ProcessResponse(ctx context.Context, candidateID, text string) (*clarify.Progress, error)
	Progress(ctx context.Context, candidateID string) (*clarify.Progress, error)
}

// Lifecycle drives ideas through their states.
type Lifecycle interface {
	Get(ctx context.Context, ideaID string) (*model.Idea, error)
	History(ctx context.Context, ideaID string) ([]model.Transition, error)
	Analyze(ctx context.Context, ideaID string) (*model.Idea, error)
	Advance(ctx context.Context, ideaID string, target model.IdeaStatus, reason string) (*model.Idea, error)
	RecordAssessment(ctx context.Context, ideaID string, sub map[string]int) (*model.Idea, error)
}

// Matcher proposes and decides mentor matches.
type Matcher interface {
	Propose(ctx context.Context, ideaID string, limit int) ([]model.MentorMatch, error)
	List(ctx context.Context, ideaID string) ([]model.MentorMatch, error)
	Approve(ctx context.Context, matchID string) (*model.MentorMatch, error)
	Reject(ctx context.Context, matchID string) (*model.MentorMatch, error)
}

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func missingArg(name string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s is required", name))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errorResult reports err to the caller. Temporary failures say so, and
// validation failures list what is missing.
func errorResult(action string, err error) *mcp.CallToolResult {
	var verr *extract.ValidationError
	switch {
	case errors.As(err, &verr):
		return mcp.NewToolResultError(fmt.Sprintf("%s: missing required fields: %v", action, verr.Missing))
	case errors.Is(err, extract.ErrCouldNotExtract), lifecycle.IsRecoverable(err), resilience.IsTransient(err):
		return mcp.NewToolResultError(fmt.Sprintf("%s failed temporarily, retry later: %v", action, err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", action, err))
	}
}
