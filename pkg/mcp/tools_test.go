package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/scrapegen/internal/generator"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/pkg/schema"
)

type stubSuggester struct {
	boards string
	tips   suggest.TipsRequest
}

func (s *stubSuggester) SuggestKeywords(_ context.Context, boards string) []string {
	s.boards = boards
	return []string{"need help", "looking for"}
}

func (s *stubSuggester) SuggestOptimizationTips(_ context.Context, req suggest.TipsRequest) string {
	s.tips = req
	return "- be specific"
}

func newTestServer(t *testing.T) (*Server, *stubSuggester) {
	t.Helper()
	sg := &stubSuggester{}
	s, err := NewServer(ServerDeps{Suggester: sg})
	require.NoError(t, err)
	return s, sg
}

// --- Helper ---

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

// --- Tests ---

func TestGenerateTool_Defaults(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleGenerate(context.Background(), buildRequest("scrapegen.generate", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	want, err := generator.Render(schema.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, want, extractText(t, result))
}

func TestGenerateTool_Arguments(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleGenerate(context.Background(), buildRequest("scrapegen.generate", map[string]any{
		"subreddits":       "saas",
		"keywords":         "need tool",
		"days_old":         float64(3),
		"schedule_hours":   float64(12),
		"check_duplicates": false,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	wf, err := schema.ParseWorkflow([]byte(extractText(t, result)))
	require.NoError(t, err)
	assert.Len(t, wf.Nodes, 5)
	assert.Len(t, wf.Connections, 4)
}

func TestGenerateTool_InvalidConfig(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleGenerate(context.Background(), buildRequest("scrapegen.generate", map[string]any{
		"schedule_hours": float64(5),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), "schedule_hours")
}

func TestGenerateTool_Query(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleGenerate(context.Background(), buildRequest("scrapegen.generate", map[string]any{
		"check_duplicates": false,
		"query":            "[.nodes[].name]",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var names []string
	unmarshalResult(t, result, &names)
	assert.Equal(t, []string{
		generator.NodeTrigger, generator.NodeConfig, generator.NodeSearch,
		generator.NodeFilter, generator.NodeSave,
	}, names)

	result, err = s.handleGenerate(context.Background(), buildRequest("scrapegen.generate", map[string]any{
		"query": ".nodes[",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestValidateTool(t *testing.T) {
	s, _ := newTestServer(t)
	doc, err := generator.Render(schema.DefaultConfig())
	require.NoError(t, err)

	matching := map[string]any{
		"subreddits": "a", "keywords": "b", "days_old": 7, "schedule_hours": 6, "check_duplicates": true,
	}
	contradicting := map[string]any{
		"subreddits": "a", "keywords": "b", "days_old": 7, "schedule_hours": 6, "check_duplicates": false,
	}

	tests := []struct {
		name  string
		args  map[string]any
		valid bool
	}{
		{"document only", map[string]any{"document": doc}, true},
		{"matching config", map[string]any{"document": doc, "config": matching}, true},
		{"contradicting config", map[string]any{"document": doc, "config": contradicting}, false},
		{"invalid config", map[string]any{"document": doc, "config": map[string]any{"days_old": 0}}, false},
		{"not json", map[string]any{"document": "{"}, false},
		{"extra assertion", map[string]any{"document": doc, "assertions": []any{"size(doc.nodes) == 6"}}, true},
		{"failing assertion", map[string]any{"document": doc, "assertions": []any{"size(doc.nodes) == 1"}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := s.handleValidate(context.Background(), buildRequest("scrapegen.validate", tc.args))
			require.NoError(t, err)
			require.False(t, result.IsError)

			var out struct {
				Valid bool `json:"valid"`
			}
			unmarshalResult(t, result, &out)
			assert.Equal(t, tc.valid, out.Valid, extractText(t, result))
		})
	}
}

func TestValidateTool_MissingDocument(t *testing.T) {
	s, _ := newTestServer(t)
	result, err := s.handleValidate(context.Background(), buildRequest("scrapegen.validate", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSuggestKeywordsTool(t *testing.T) {
	s, sg := newTestServer(t)

	result, err := s.handleSuggestKeywords(context.Background(), buildRequest("scrapegen.suggest_keywords", map[string]any{
		"subreddits": "saas, startups",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "saas, startups", sg.boards)

	var out struct {
		Keywords []string `json:"keywords"`
	}
	unmarshalResult(t, result, &out)
	assert.Equal(t, []string{"need help", "looking for"}, out.Keywords)

	result, err = s.handleSuggestKeywords(context.Background(), buildRequest("scrapegen.suggest_keywords", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSuggestTipsTool(t *testing.T) {
	s, sg := newTestServer(t)

	result, err := s.handleSuggestTips(context.Background(), buildRequest("scrapegen.suggest_tips", map[string]any{
		"subreddits": "saas",
		"keywords":   "need tool",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "- be specific", extractText(t, result))
	assert.Equal(t, suggest.TipsRequest{Subreddits: "saas", Keywords: "need tool"}, sg.tips)

	result, err = s.handleSuggestTips(context.Background(), buildRequest("scrapegen.suggest_tips", map[string]any{
		"subreddits": "saas",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSuggestTool_OfflineFallback(t *testing.T) {
	s, err := NewServer(ServerDeps{})
	require.NoError(t, err)

	result, err := s.handleSuggestKeywords(context.Background(), buildRequest("scrapegen.suggest_keywords", map[string]any{
		"subreddits": "saas",
	}))
	require.NoError(t, err)

	var out struct {
		Keywords []string `json:"keywords"`
	}
	unmarshalResult(t, result, &out)
	assert.Equal(t, suggest.FallbackKeywords(), out.Keywords)
}

func TestDiagramTool(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleDiagram(context.Background(), buildRequest("scrapegen.diagram", nil))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))
	text := extractText(t, result)
	assert.True(t, strings.HasPrefix(text, "graph TD"))
	assert.Contains(t, text, "Check Duplicates")

	result, err = s.handleDiagram(context.Background(), buildRequest("scrapegen.diagram", map[string]any{
		"format":           "ascii",
		"check_duplicates": false,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, extractText(t, result), "Save to Sheets")
	assert.NotContains(t, extractText(t, result), "Check Duplicates")

	result, err = s.handleDiagram(context.Background(), buildRequest("scrapegen.diagram", map[string]any{
		"format": "svg",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- Test helpers ---

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}
