package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ChainStartTool handles the idea_chain_start MCP tool.
type ChainStartTool struct {
	chain Chain
}

// NewChainStartTool creates a ChainStartTool.
func NewChainStartTool(c Chain) *ChainStartTool {
	return &ChainStartTool{chain: c}
}

// Definition returns the MCP tool definition for idea_chain_start.
func (t *ChainStartTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_chain_start",
		mcp.WithDescription("Start the clarification chain of a candidate and return the active question. "+
			"Calling it again returns the same active question."),
		mcp.WithString("candidate_id", mcp.Required(), mcp.Description("Candidate id")),
		mcp.WithString("contact", mcp.Description("Where to send the questions")),
	)
}

// Handle processes the idea_chain_start tool call.
func (t *ChainStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("candidate_id", "")
	if id == "" {
		return missingArg("candidate_id"), nil
	}
	q, err := t.chain.StartChain(ctx, id, req.GetString("contact", ""))
	if err != nil {
		return errorResult("start chain", err), nil
	}
	return jsonResult(q)
}

// ChainAnswerTool handles the idea_chain_answer MCP tool.
type ChainAnswerTool struct {
	chain Chain
}

// NewChainAnswerTool creates a ChainAnswerTool.
func NewChainAnswerTool(c Chain) *ChainAnswerTool {
	return &ChainAnswerTool{chain: c}
}

// Definition returns the MCP tool definition for idea_chain_answer.
func (t *ChainAnswerTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_chain_answer",
		mcp.WithDescription("Answer the active clarification question. \"skip\" skips it. "+
			"The last answer promotes the candidate."),
		mcp.WithString("candidate_id", mcp.Required(), mcp.Description("Candidate id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The speaker's answer")),
	)
}

// Handle processes the idea_chain_answer tool call.
func (t *ChainAnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("candidate_id", "")
	if id == "" {
		return missingArg("candidate_id"), nil
	}
	p, err := t.chain.ProcessResponse(ctx, id, req.GetString("text", ""))
	if err != nil {
		return errorResult("answer", err), nil
	}
	return jsonResult(p)
}

// ChainProgressTool handles the idea_chain_progress MCP tool.
type ChainProgressTool struct {
	chain Chain
}

// NewChainProgressTool creates a ChainProgressTool.
func NewChainProgressTool(c Chain) *ChainProgressTool {
	return &ChainProgressTool{chain: c}
}

// Definition returns the MCP tool definition for idea_chain_progress.
func (t *ChainProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("idea_chain_progress",
		mcp.WithDescription("Show how many clarification questions are done and which one is active."),
		mcp.WithString("candidate_id", mcp.Required(), mcp.Description("Candidate id")),
	)
}

// Handle processes the idea_chain_progress tool call.
func (t *ChainProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("candidate_id", "")
	if id == "" {
		return missingArg("candidate_id"), nil
	}
	p, err := t.chain.Progress(ctx, id)
	if err != nil {
		return errorResult("progress", err), nil
	}
	return jsonResult(p)
}
