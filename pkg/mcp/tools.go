package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/scrapegen/internal/diagram"
	"github.com/rendis/scrapegen/internal/generator"
	"github.com/rendis/scrapegen/internal/logging"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/internal/validation"
	"github.com/rendis/scrapegen/pkg/schema"
)

// handleGenerate returns the canonical document text, or the jq query
// result when "query" is set.
func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = s.begin(ctx, req)

	cfg, errResult := s.configFromArgs(req)
	if errResult != nil {
		return errResult, nil
	}

	if q := req.GetString("query", ""); q != "" {
		out, err := s.jq.Query(ctx, q, generator.Generate(cfg))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		return marshalResult(out)
	}

	doc, err := generator.Render(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(doc), nil
}

// handleValidate runs the document pipeline and reports the verdict.
func (s *Server) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = s.begin(ctx, req)

	document, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError("document is required"), nil
	}

	result := &schema.ValidationResult{}
	opts := validation.DocumentOptions{
		Assertions: req.GetStringSlice("assertions", nil),
	}

	if raw := mcp.ParseStringMap(req, "config", nil); raw != nil {
		data, err := json.Marshal(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid config: %v", err)), nil
		}
		cfg, cfgResult := s.validator.ValidateConfigJSON(data)
		result.Merge(cfgResult)
		if cfgResult.Valid() {
			opts.Config = &cfg
		}
	}
	if result.Valid() {
		_, docResult := s.validator.ValidateDocumentJSON(ctx, []byte(document), opts)
		result.Merge(docResult)
	}

	return marshalResult(map[string]any{
		"valid":      result.Valid(),
		"validation": result,
	})
}

func (s *Server) handleSuggestKeywords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = s.begin(ctx, req)

	subreddits, err := req.RequireString("subreddits")
	if err != nil {
		return mcp.NewToolResultError("subreddits is required"), nil
	}
	return marshalResult(map[string]any{
		"keywords": s.suggester.SuggestKeywords(ctx, subreddits),
	})
}

func (s *Server) handleSuggestTips(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = s.begin(ctx, req)

	subreddits, err := req.RequireString("subreddits")
	if err != nil {
		return mcp.NewToolResultError("subreddits is required"), nil
	}
	keywords, err := req.RequireString("keywords")
	if err != nil {
		return mcp.NewToolResultError("keywords is required"), nil
	}
	tips := s.suggester.SuggestOptimizationTips(ctx, suggest.TipsRequest{Subreddits: subreddits, Keywords: keywords})
	return mcp.NewToolResultText(tips), nil
}

// handleDiagram renders the workflow a config generates.
func (s *Server) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = s.begin(ctx, req)

	format := req.GetString("format", "mermaid")
	if format != "ascii" && format != "mermaid" && format != "image" {
		return mcp.NewToolResultError("format must be ascii, mermaid, or image"), nil
	}
	cfg, errResult := s.configFromArgs(req)
	if errResult != nil {
		return errResult, nil
	}

	model, err := diagram.Build(generator.Generate(cfg))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram build failed: %v", err)), nil
	}

	switch format {
	case "ascii":
		return mcp.NewToolResultText(diagram.RenderASCII(model)), nil
	case "image":
		png, err := diagram.RenderImage(ctx, model)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("image render failed: %v", err)), nil
		}
		return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(png)), nil
	default:
		return mcp.NewToolResultText(diagram.RenderMermaid(model)), nil
	}
}

// --- Internal helpers ---

// begin tags ctx with a request id and logs the call.
func (s *Server) begin(ctx context.Context, req mcp.CallToolRequest) context.Context {
	ctx = logging.NewRequest(ctx, logging.SurfaceMCP)
	s.logger.DebugContext(ctx, "tool call", "tool", req.Params.Name)
	return ctx
}

// configFromArgs overlays the call's arguments on DefaultConfig and runs
// input validation. A non-nil result reports the rejection.
func (s *Server) configFromArgs(req mcp.CallToolRequest) (schema.ScraperConfig, *mcp.CallToolResult) {
	def := schema.DefaultConfig()
	cfg := schema.ScraperConfig{
		Subreddits:      req.GetString("subreddits", def.Subreddits),
		Keywords:        req.GetString("keywords", def.Keywords),
		DaysOld:         req.GetInt("days_old", def.DaysOld),
		ScheduleHours:   req.GetInt("schedule_hours", def.ScheduleHours),
		CheckDuplicates: req.GetBool("check_duplicates", def.CheckDuplicates),
	}

	result := s.validator.ValidateConfig(cfg)
	if !result.Valid() {
		data, _ := json.Marshal(result)
		return cfg, mcp.NewToolResultError(fmt.Sprintf("invalid config: %s", data))
	}
	return cfg, nil
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
