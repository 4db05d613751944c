package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sells-group/ideaflow/internal/model"
)

// MatchesTool handles the idea_matches MCP tool.
type MatchesTool struct {
	matcher Matcher
}

// NewMatchesTool creates a MatchesTool.
func NewMatchesTool(m Matcher) *MatchesTool {
	return &MatchesTool{matcher: m}
}

// Definition returns the MCP tool definition for idea_matches.
func (t *MatchesTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_matches",
		mcp.WithDescription("Propose ranked mentor matches for an analyzed idea, or list the stored ones."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea id")),
		mcp.WithBoolean("propose", mcp.Description("Rank the mentor pool and store new proposals (default true)")),
		mcp.WithNumber("limit", mcp.Description("Maximum proposals")),
	)
}

// Handle processes the idea_matches tool call.
func (t *MatchesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("idea_id", "")
	if id == "" {
		return missingArg("idea_id"), nil
	}
	var (
		ms  []model.MentorMatch
		err error
	)
	if boolArg(req, "propose", true) {
		ms, err = t.matcher.Propose(ctx, id, intArg(req, "limit", 0))
	} else {
		ms, err = t.matcher.List(ctx, id)
	}
	if err != nil {
		return errorResult("matches", err), nil
	}
	return jsonResult(ms)
}

// MatchDecideTool handles the idea_match_decide MCP tool.
type MatchDecideTool struct {
	matcher Matcher
}

// NewMatchDecideTool creates a MatchDecideTool.
func NewMatchDecideTool(m Matcher) *MatchDecideTool {
	return &MatchDecideTool{matcher: m}
}

// Definition returns the MCP tool definition for idea_match_decide.
func (t *MatchDecideTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_match_decide",
		mcp.WithDescription("Approve or reject a pending match. Approval moves the idea to matched."),
		mcp.WithString("match_id", mcp.Required(), mcp.Description("Match id")),
		mcp.WithString("decision", mcp.Required(), mcp.Enum("approve", "reject")),
	)
}

// Handle processes the idea_match_decide tool call.
func (t *MatchDecideTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("match_id", "")
	if id == "" {
		return missingArg("match_id"), nil
	}
	var (
		m   *model.MentorMatch
		err error
	)
	switch d := req.GetString("decision", ""); d {
	case "approve":
		m, err = t.matcher.Approve(ctx, id)
	case "reject":
		m, err = t.matcher.Reject(ctx, id)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("decision must be approve or reject, got %q", d)), nil
	}
	if err != nil {
		return errorResult("decide match", err), nil
	}
	return jsonResult(m)
}
