package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/score"
)

func viewOf(idea *model.Idea) lifecycle.View { return lifecycle.NewView(idea) }

// StatusTool handles the idea_status MCP tool.
type StatusTool struct {
	lifecycle Lifecycle
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(l Lifecycle) *StatusTool {
	return &StatusTool{lifecycle: l}
}

// Definition returns the MCP tool definition for idea_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_status",
		mcp.WithDescription("Show an idea with its scores, tier and, optionally, its transition history."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea id")),
		mcp.WithBoolean("history", mcp.Description("Include the audited transitions")),
	)
}

// Handle processes the idea_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("idea_id", "")
	if id == "" {
		return missingArg("idea_id"), nil
	}
	idea, err := t.lifecycle.Get(ctx, id)
	if err != nil {
		return errorResult("status", err), nil
	}
	if !boolArg(req, "history", false) {
		return jsonResult(viewOf(idea))
	}
	ts, err := t.lifecycle.History(ctx, id)
	if err != nil {
		return errorResult("history", err), nil
	}
	return jsonResult(struct {
		lifecycle.View
		Transitions []model.Transition `json:"transitions"`
	}{viewOf(idea), ts})
}

// AnalyzeTool handles the idea_analyze MCP tool.
type AnalyzeTool struct {
	lifecycle Lifecycle
}

// NewAnalyzeTool creates an AnalyzeTool.
func NewAnalyzeTool(l Lifecycle) *AnalyzeTool {
	return &AnalyzeTool{lifecycle: l}
}

// Definition returns the MCP tool definition for idea_analyze.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_analyze",
		mcp.WithDescription("Score an idea and move it to analyzed. Safe to repeat."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea id")),
	)
}

// Handle processes the idea_analyze tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("idea_id", "")
	if id == "" {
		return missingArg("idea_id"), nil
	}
	idea, err := t.lifecycle.Analyze(ctx, id)
	if err != nil {
		return errorResult("analyze", err), nil
	}
	return jsonResult(viewOf(idea))
}

// AdvanceTool handles the idea_advance MCP tool.
type AdvanceTool struct {
	lifecycle Lifecycle
}

// NewAdvanceTool creates an AdvanceTool.
func NewAdvanceTool(l Lifecycle) *AdvanceTool {
	return &AdvanceTool{lifecycle: l}
}

// Definition returns the MCP tool definition for idea_advance.
func (t *AdvanceTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_advance",
		mcp.WithDescription("Move an idea to its next status or to rejected. Skipping a status is refused."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea id")),
		mcp.WithString("status", mcp.Required(),
			mcp.Enum("analyzing", "analyzed", "matched", "funded", "in_progress", "completed", "rejected"),
			mcp.Description("Target status")),
		mcp.WithString("reason", mcp.Description("Recorded in the audit trail")),
	)
}

// Handle processes the idea_advance tool call.
func (t *AdvanceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("idea_id", "")
	if id == "" {
		return missingArg("idea_id"), nil
	}
	target, ok := model.ParseIdeaStatus(req.GetString("status", ""))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", req.GetString("status", ""))), nil
	}
	idea, err := t.lifecycle.Advance(ctx, id, target, req.GetString("reason", ""))
	if err != nil {
		return errorResult("advance", err), nil
	}
	return jsonResult(viewOf(idea))
}

// AssessTool handles the idea_assess MCP tool.
type AssessTool struct {
	lifecycle Lifecycle
}

// NewAssessTool creates an AssessTool.
func NewAssessTool(l Lifecycle) *AssessTool {
	return &AssessTool{lifecycle: l}
}

// Definition returns the MCP tool definition for idea_assess.
func (t *AssessTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Record stage-2 sub-scores (0-5 each) and rescore the idea. Omitted criteria are left out."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea id")),
	}
	for _, key := range score.AssessmentKeys() {
		opts = append(opts, mcp.WithNumber(key, mcp.Description("Sub-score from 0 to 5")))
	}
	return mcp.NewTool("idea_assess", opts...)
}

// Handle processes the idea_assess tool call.
func (t *AssessTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("idea_id", "")
	if id == "" {
		return missingArg("idea_id"), nil
	}
	sub := make(map[string]int)
	for _, key := range score.AssessmentKeys() {
		if v := intArg(req, key, -1); v >= 0 {
			sub[key] = v
		}
	}
	idea, err := t.lifecycle.RecordAssessment(ctx, id, sub)
	if err != nil {
		return errorResult("assess", err), nil
	}
	return jsonResult(viewOf(idea))
}

// RubricTool handles the idea_rubric MCP tool.
type RubricTool struct{}

// Definition returns the MCP tool definition for idea_rubric.
func (RubricTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_rubric",
		mcp.WithDescription("List the scoring criteria and the tier thresholds."),
	)
}

// Handle processes the idea_rubric tool call.
func (RubricTool) Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"criteria": score.Criteria(),
		"tiers": map[score.Tier]int{
			score.TierExceptional: score.ExceptionalMin,
			score.TierQualified:   score.QualifiedMin,
			score.TierDeveloping:  score.DevelopingMin,
			score.TierPending:     0,
		},
	})
}
