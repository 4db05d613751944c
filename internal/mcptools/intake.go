package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sells-group/ideaflow/internal/model"
)

// SubmitTool handles the idea_submit MCP tool.
type SubmitTool struct {
	intake Intake
}

// NewSubmitTool creates a SubmitTool.
func NewSubmitTool(in Intake) *SubmitTool {
	return &SubmitTool{intake: in}
}

// Definition returns the MCP tool definition for idea_submit.
func (t *SubmitTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_submit",
		mcp.WithDescription("Submit a raw idea description. Confident extractions are promoted to an idea; "+
			"others start a clarification chain whose first question is returned."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The idea as the speaker described it")),
		mcp.WithString("contact", mcp.Description("Messaging address of the speaker")),
	)
}

// Handle processes the idea_submit tool call.
func (t *SubmitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return missingArg("text"), nil
	}
	out, err := t.intake.Submit(ctx, model.RawSubmission{Text: text, Contact: req.GetString("contact", "")})
	if err != nil {
		return errorResult("submit", err), nil
	}
	return jsonResult(out)
}

// ExtractTool handles the idea_extract MCP tool.
type ExtractTool struct {
	extractor Extractor
}

// NewExtractTool creates an ExtractTool.
func NewExtractTool(ex Extractor) *ExtractTool {
	return &ExtractTool{extractor: ex}
}

// Definition returns the MCP tool definition for idea_extract.
func (t *ExtractTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_extract",
		mcp.WithDescription("Extract a candidate idea from raw text without promoting it."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw submission text")),
		mcp.WithString("contact", mcp.Description("Messaging address of the speaker")),
	)
}

// Handle processes the idea_extract tool call.
func (t *ExtractTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return missingArg("text"), nil
	}
	cand, err := t.extractor.Extract(ctx, model.RawSubmission{Text: text, Contact: req.GetString("contact", "")})
	if err != nil {
		return errorResult("extract", err), nil
	}
	return jsonResult(cand)
}

// PromoteTool handles the idea_promote MCP tool.
type PromoteTool struct {
	intake Intake
}

// NewPromoteTool creates a PromoteTool.
func NewPromoteTool(in Intake) *PromoteTool {
	return &PromoteTool{intake: in}
}

// Definition returns the MCP tool definition for idea_promote.
func (t *PromoteTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_promote",
		mcp.WithDescription("Promote a candidate to a canonical idea. Idempotent; a candidate with an open "+
			"clarification chain cannot be promoted yet."),
		mcp.WithString("candidate_id", mcp.Required(), mcp.Description("Candidate id")),
	)
}

// Handle processes the idea_promote tool call.
func (t *PromoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("candidate_id", "")
	if id == "" {
		return missingArg("candidate_id"), nil
	}
	idea, err := t.intake.Promote(ctx, id)
	if err != nil {
		return errorResult("promote", err), nil
	}
	return jsonResult(viewOf(idea))
}
