// Package mcp exposes scrapegen as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/scrapegen/internal/expressions"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/internal/validation"
)

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	Validator *validation.WorkflowValidator
	Suggester suggest.Suggester
	Logger    *slog.Logger
	Version   string
}

// Server wraps an MCP server with scrapegen tool handlers.
type Server struct {
	validator *validation.WorkflowValidator
	suggester suggest.Suggester
	jq        *expressions.GoJQEngine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a Server with all tools registered.
func NewServer(deps ServerDeps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	v := deps.Validator
	if v == nil {
		var err error
		if v, err = validation.NewWorkflowValidator(); err != nil {
			return nil, fmt.Errorf("mcp: build validator: %w", err)
		}
	}
	sg := deps.Suggester
	if sg == nil {
		sg = suggest.NewClient(suggest.Offline{}, logger)
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		validator: v,
		suggester: sg,
		jq:        expressions.NewGoJQEngine(),
		logger:    logger.With(slog.String("component", "mcp")),
	}

	mcpSrv := server.NewMCPServer(
		"scrapegen",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("scrapegen builds importable n8n workflows that scrape Reddit for leads and append them to Google Sheets. "+
			"Use scrapegen.generate to get the workflow JSON, scrapegen.validate to check a document, "+
			"scrapegen.suggest_keywords and scrapegen.suggest_tips for search ideas, and scrapegen.diagram to visualise the flow."),
	)
	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: generateTool(), Handler: s.handleGenerate},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: suggestKeywordsTool(), Handler: s.handleSuggestKeywords},
		{Tool: suggestTipsTool(), Handler: s.handleSuggestTips},
		{Tool: diagramTool(), Handler: s.handleDiagram},
	}
}

// --- Tool definitions ---

// configOptions are the ScraperConfig arguments shared by generate and
// diagram. Omitted arguments take their default values.
func configOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("subreddits", mcp.Description("Comma-separated subreddit names without the r/ prefix")),
		mcp.WithString("keywords", mcp.Description("Comma-separated search keywords, joined with OR")),
		mcp.WithNumber("days_old", mcp.Description("Drop posts older than this many days (1-30, default 7)")),
		mcp.WithNumber("schedule_hours", mcp.Description("Run interval in hours: 1, 6, 12 or 24 (default 6)")),
		mcp.WithBoolean("check_duplicates", mcp.Description("Skip posts whose URL is already in the sheet (default true)")),
	}
}

func generateTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Generate an importable n8n workflow JSON for a Reddit lead scraper"),
		mcp.WithString("query", mcp.Description("Optional jq expression evaluated over the generated document")),
	}, configOptions()...)
	return mcp.NewTool("scrapegen.generate", opts...)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("scrapegen.validate",
		mcp.WithDescription("Validate an n8n workflow document, optionally against the config that should have produced it"),
		mcp.WithString("document", mcp.Required(), mcp.Description("Workflow document JSON")),
		mcp.WithObject("config", mcp.Description("Scraper config the document must match")),
		mcp.WithArray("assertions",
			mcp.Description("Extra CEL assertions over doc and config"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

func suggestKeywordsTool() mcp.Tool {
	return mcp.NewTool("scrapegen.suggest_keywords",
		mcp.WithDescription("Suggest high-intent search keywords for the given subreddits"),
		mcp.WithString("subreddits", mcp.Required(), mcp.Description("Comma-separated subreddit names")),
	)
}

func suggestTipsTool() mcp.Tool {
	return mcp.NewTool("scrapegen.suggest_tips",
		mcp.WithDescription("Suggest three brief tips to improve a scraper configuration"),
		mcp.WithString("subreddits", mcp.Required(), mcp.Description("Comma-separated subreddit names")),
		mcp.WithString("keywords", mcp.Required(), mcp.Description("Comma-separated keywords")),
	)
}

func diagramTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Diagram the generated workflow. Returns Mermaid flowchart syntax, ASCII art, or a base64-encoded PNG image"),
		mcp.WithString("format",
			mcp.Enum("mermaid", "ascii", "image"),
			mcp.Description("Output format (default: mermaid)"),
		),
	}, configOptions()...)
	return mcp.NewTool("scrapegen.diagram", opts...)
}
