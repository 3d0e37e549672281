package panel

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rendis/scrapegen/internal/generator"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/internal/validation"
	"github.com/rendis/scrapegen/pkg/schema"
)

type workflowResponse struct {
	Workflow json.RawMessage          `json:"workflow"`
	Summary  generator.Summary        `json:"summary"`
	Warnings []schema.ValidationIssue `json:"warnings,omitempty"`
}

// handleAPIWorkflow generates the document for a JSON config body. The
// optional query parameter "query" runs a jq expression over the document
// and returns its result instead.
func (s *PanelServer) handleAPIWorkflow(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}
	cfg, result := s.deps.Validator.ValidateConfigJSON(body)
	if !result.Valid() {
		writeValidation(w, result)
		return
	}

	if q := r.URL.Query().Get("query"); q != "" {
		out, err := s.jq.Query(r.Context(), q, generator.Generate(cfg))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": out})
		return
	}

	doc, err := generator.Render(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, workflowResponse{
		Workflow: json.RawMessage(doc),
		Summary:  generator.Summarize(cfg),
		Warnings: result.Warnings,
	})
}

type suggestResponse struct {
	Keywords []string `json:"keywords"`
	Tips     string   `json:"tips"`
}

// handleAPISuggest asks for keywords and tips concurrently. It never fails
// on provider errors: the suggester answers with fallbacks.
func (s *PanelServer) handleAPISuggest(w http.ResponseWriter, r *http.Request) {
	var body suggest.TipsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	ctx := r.Context()
	var resp suggestResponse
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		resp.Keywords = s.deps.Suggester.SuggestKeywords(ctx, body.Subreddits)
	}()
	go func() {
		defer wg.Done()
		resp.Tips = s.deps.Suggester.SuggestOptimizationTips(ctx, body)
	}()
	wg.Wait()

	writeJSON(w, http.StatusOK, resp)
}

type validateRequest struct {
	Config     json.RawMessage `json:"config"`
	Document   json.RawMessage `json:"document"`
	Assertions []string        `json:"assertions"`
}

type validateResponse struct {
	Valid      bool                     `json:"valid"`
	Validation *schema.ValidationResult `json:"validation"`
}

// handleAPIValidate checks a config, a document, or a document against the
// config that should have produced it. Invalid input still answers 200;
// the verdict is in the body.
func (s *PanelServer) handleAPIValidate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if len(body.Config) == 0 && len(body.Document) == 0 {
		writeError(w, http.StatusBadRequest, "config or document is required")
		return
	}

	result := &schema.ValidationResult{}
	var opts validation.DocumentOptions
	opts.Assertions = body.Assertions

	if len(body.Config) > 0 {
		cfg, cfgResult := s.deps.Validator.ValidateConfigJSON(body.Config)
		result.Merge(cfgResult)
		if cfgResult.Valid() {
			opts.Config = &cfg
		}
	}
	if len(body.Document) > 0 && result.Valid() {
		_, docResult := s.deps.Validator.ValidateDocumentJSON(r.Context(), body.Document, opts)
		result.Merge(docResult)
	}

	writeJSON(w, http.StatusOK, validateResponse{Valid: result.Valid(), Validation: result})
}

func (s *PanelServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
