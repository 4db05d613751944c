package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Deps are the services the tools call.
type Deps struct {
	Intake    Intake
	Extractor Extractor
	Chain     Chain
	Lifecycle Lifecycle
	Matcher   Matcher
}

// Tool is an MCP tool with its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Tools lists every tool backed by deps.
func Tools(deps Deps) []Tool {
	return []Tool{
		NewSubmitTool(deps.Intake),
		NewExtractTool(deps.Extractor),
		NewPromoteTool(deps.Intake),
		NewChainStartTool(deps.Chain),
		NewChainAnswerTool(deps.Chain),
		NewChainProgressTool(deps.Chain),
		NewStatusTool(deps.Lifecycle),
		NewAnalyzeTool(deps.Lifecycle),
		NewAdvanceTool(deps.Lifecycle),
		NewAssessTool(deps.Lifecycle),
		NewMatchesTool(deps.Matcher),
		NewMatchDecideTool(deps.Matcher),
		RubricTool{},
	}
}

// NewServer registers every tool on a new MCP server.
func NewServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer("ideaflow", Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	for _, t := range Tools(deps) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}
