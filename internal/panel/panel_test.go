package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/scrapegen/internal/generator"
	"github.com/rendis/scrapegen/internal/logging"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/pkg/schema"
)

type stubSuggester struct{}

func (stubSuggester) SuggestKeywords(_ context.Context, boards string) []string {
	return []string{"kw for " + boards}
}

func (stubSuggester) SuggestOptimizationTips(_ context.Context, req suggest.TipsRequest) string {
	return "tip for " + req.Keywords
}

func newTestServer(t *testing.T, logger *slog.Logger) http.Handler {
	t.Helper()
	srv, err := NewPanelServer(PanelDeps{
		Suggester: stubSuggester{},
		Logger:    logger,
		Now:       func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, h http.Handler, target string, values url.Values) *httptest.ResponseRecorder {
	return do(t, h, http.MethodPost, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func postJSON(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	return do(t, h, http.MethodPost, target, strings.NewReader(body), "application/json")
}

const validConfigJSON = `{"subreddits":"saas, startups","keywords":"need tool, looking for","days_old":7,"schedule_hours":6,"check_duplicates":true}`

func TestForm_Defaults(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `value="saas, entrepreneur, startups"`)
	assert.Contains(t, body, `<option value="6" selected>`)
	assert.Contains(t, body, `name="check_duplicates" checked`)
}

func TestPreview_Valid(t *testing.T) {
	h := newTestServer(t, nil)
	rec := postForm(t, h, "/preview", configQuery(schema.DefaultConfig()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "Reddit Lead Scraper")
	assert.Contains(t, body, generator.NodeDuplicates)
	assert.Contains(t, body, generator.Filename)
	assert.Contains(t, body, "Every 6 hours")
	assert.Contains(t, body, "graph TD")
	assert.Contains(t, body, "/download?")
}

func TestPreview_InvalidRendersForm(t *testing.T) {
	h := newTestServer(t, nil)

	values := configQuery(schema.DefaultConfig())
	values.Set("days_old", "99")
	rec := postForm(t, h, "/preview", values)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "days_old")

	values.Set("days_old", "abc")
	rec = postForm(t, h, "/preview", values)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be an integer")
}

func TestDownload(t *testing.T) {
	h := newTestServer(t, nil)
	cfg := schema.DefaultConfig()
	cfg.CheckDuplicates = false

	rec := do(t, h, http.MethodGet, "/download?"+configQuery(cfg).Encode(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="reddit-scraper-n8n.json"`, rec.Header().Get("Content-Disposition"))

	want, err := generator.Render(cfg)
	require.NoError(t, err)
	assert.Equal(t, want, rec.Body.String())
}

func TestDownload_Invalid(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/download?schedule_hours=5", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "schedule_hours")
}

func TestGuide(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/guide", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reddit API Credentials")
	assert.Contains(t, rec.Body.String(), "Activate &amp; Run")
}

func TestAPIWorkflow(t *testing.T) {
	h := newTestServer(t, nil)
	rec := postJSON(t, h, "/api/workflow", validConfigJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp workflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Summary.Nodes, 6)
	assert.Equal(t, "need tool OR looking for", resp.Summary.SearchTerm)

	wf, err := schema.ParseWorkflow(resp.Workflow)
	require.NoError(t, err)
	assert.Len(t, wf.Connections, 5)
}

func TestAPIWorkflow_Invalid(t *testing.T) {
	h := newTestServer(t, nil)
	rec := postJSON(t, h, "/api/workflow", `{"subreddits":"a","keywords":"b","days_old":0,"schedule_hours":6,"check_duplicates":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error      string                  `json:"error"`
		Validation schema.ValidationResult `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Validation.Errors)
	assert.Equal(t, "days_old", resp.Validation.Errors[0].Path)
}

func TestAPIWorkflow_Query(t *testing.T) {
	h := newTestServer(t, nil)
	rec := postJSON(t, h, "/api/workflow?query="+url.QueryEscape(".nodes | length"), validConfigJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 6, resp["result"])

	rec = postJSON(t, h, "/api/workflow?query="+url.QueryEscape(".nodes["), validConfigJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPISuggest(t *testing.T) {
	h := newTestServer(t, nil)
	rec := postJSON(t, h, "/api/suggest", `{"subreddits":"saas","keywords":"need tool"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp suggestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"kw for saas"}, resp.Keywords)
	assert.Equal(t, "tip for need tool", resp.Tips)

	rec = postJSON(t, h, "/api/suggest", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPISuggest_OfflineFallback(t *testing.T) {
	srv, err := NewPanelServer(PanelDeps{})
	require.NoError(t, err)
	rec := postJSON(t, srv.Handler(), "/api/suggest", `{"subreddits":"saas"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp suggestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, suggest.FallbackKeywords(), resp.Keywords)
	assert.Equal(t, suggest.FallbackTip, resp.Tips)
}

func TestAPIValidate(t *testing.T) {
	h := newTestServer(t, nil)
	doc, err := generator.Render(schema.DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"config ok", `{"config":` + validConfigJSON + `}`, true},
		{"config bad", `{"config":{"days_old":3}}`, false},
		{"document ok", `{"document":` + doc + `}`, true},
		{"document matches config", `{"document":` + doc + `,"config":{"subreddits":"a","keywords":"b","days_old":7,"schedule_hours":6,"check_duplicates":true}}`, true},
		{"document contradicts config", `{"document":` + doc + `,"config":{"subreddits":"a","keywords":"b","days_old":7,"schedule_hours":6,"check_duplicates":false}}`, false},
		{"document broken", `{"document":{"name":"x","nodes":[],"connections":{}}}`, false},
		{"extra assertion", `{"document":` + doc + `,"assertions":["size(doc.nodes) == 2"]}`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/validate", tc.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp validateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.valid, resp.Valid, rec.Body.String())
		})
	}

	rec := postJSON(t, h, "/api/validate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestIDs(t *testing.T) {
	var buf bytes.Buffer
	h := newTestServer(t, logging.New(&buf, new(slog.LevelVar)))

	rec := do(t, h, http.MethodGet, "/healthz", nil, "")
	generated := rec.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Contains(t, buf.String(), "request_id="+generated)
	assert.Contains(t, buf.String(), "surface=panel")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestConfigFromForm(t *testing.T) {
	cfg, result := configFromForm(url.Values{"days_old": {" 12 "}})
	require.True(t, result.Valid())
	assert.Equal(t, 12, cfg.DaysOld)
	assert.Equal(t, schema.DefaultConfig().Subreddits, cfg.Subreddits)
	assert.False(t, cfg.CheckDuplicates)

	cfg, _ = configFromForm(configQuery(schema.DefaultConfig()))
	assert.Equal(t, schema.DefaultConfig(), cfg)
}
