package panel

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/rendis/scrapegen/internal/diagram"
	"github.com/rendis/scrapegen/internal/generator"
	"github.com/rendis/scrapegen/internal/guide"
	"github.com/rendis/scrapegen/internal/schedule"
	"github.com/rendis/scrapegen/pkg/schema"
)

// previewRuns is how many upcoming runs the preview lists.
const previewRuns = 3

// --- Page data types ---

type pageData struct {
	Title  string
	Active string
}

type formData struct {
	pageData
	Config        schema.ScraperConfig
	ScheduleHours []int
	MinDaysOld    int
	MaxDaysOld    int
	Errors        []schema.ValidationIssue
	Warnings      []schema.ValidationIssue
}

type previewData struct {
	pageData
	Config      schema.ScraperConfig
	Summary     generator.Summary
	Document    string
	Mermaid     string
	NextRuns    []time.Time
	Warnings    []schema.ValidationIssue
	DownloadURL template.URL
	DiagramURL  template.URL
	Filename    string
}

type guideData struct {
	pageData
	Guide template.HTML
}

// --- Page handlers ---

func (s *PanelServer) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "form.html", s.newFormData(schema.DefaultConfig(), nil))
}

func (s *PanelServer) newFormData(cfg schema.ScraperConfig, result *schema.ValidationResult) formData {
	data := formData{
		pageData:      pageData{Title: "Configure", Active: "configure"},
		Config:        cfg,
		ScheduleHours: schema.AllowedScheduleHours,
		MinDaysOld:    schema.MinDaysOld,
		MaxDaysOld:    schema.MaxDaysOld,
	}
	if result != nil {
		data.Errors = result.Errors
		data.Warnings = result.Warnings
	}
	return data
}

// handlePreview validates the submitted form and shows the generated document.
func (s *PanelServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	cfg, result := s.checkForm(r)
	if !result.Valid() {
		s.renderPage(w, r, http.StatusBadRequest, "form.html", s.newFormData(cfg, result))
		return
	}

	doc, err := generator.Render(cfg)
	if err != nil {
		s.deps.Logger.ErrorContext(r.Context(), "render workflow", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := previewData{
		pageData:    pageData{Title: "Get JSON", Active: "preview"},
		Config:      cfg,
		Summary:     generator.Summarize(cfg),
		Document:    doc,
		Warnings:    result.Warnings,
		DownloadURL: template.URL("/download?" + configQuery(cfg).Encode()),
		DiagramURL:  template.URL("/diagram.png?" + configQuery(cfg).Encode()),
		Filename:    generator.Filename,
	}
	if model, err := diagram.Build(generator.Generate(cfg)); err == nil {
		data.Mermaid = diagram.RenderMermaid(model)
	}
	if runs, err := schedule.Preview(cfg.ScheduleHours, s.deps.Now(), previewRuns); err == nil {
		data.NextRuns = runs
	}

	s.renderPage(w, r, http.StatusOK, "preview.html", data)
}

// handleDownload serves the document as a file attachment.
func (s *PanelServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	cfg, result := s.checkForm(r)
	if !result.Valid() {
		writeValidation(w, result)
		return
	}
	doc, err := generator.Render(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+generator.Filename+`"`)
	w.Write([]byte(doc))
}

// handleDiagramImage serves the workflow graph as PNG.
func (s *PanelServer) handleDiagramImage(w http.ResponseWriter, r *http.Request) {
	cfg, result := s.checkForm(r)
	if !result.Valid() {
		writeValidation(w, result)
		return
	}
	png, err := renderPNG(r.Context(), generator.Generate(cfg))
	if err != nil {
		s.deps.Logger.ErrorContext(r.Context(), "render diagram", "error", err)
		writeError(w, http.StatusInternalServerError, "diagram rendering failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func renderPNG(ctx context.Context, wf *schema.Workflow) ([]byte, error) {
	model, err := diagram.Build(wf)
	if err != nil {
		return nil, err
	}
	return diagram.RenderImage(ctx, model)
}

func (s *PanelServer) handleGuide(w http.ResponseWriter, r *http.Request) {
	frag, err := guide.HTML(guide.Default())
	if err != nil {
		s.deps.Logger.ErrorContext(r.Context(), "render guide", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, r, http.StatusOK, "guide.html", guideData{
		pageData: pageData{Title: "Setup Guide", Active: "guide"},
		Guide:    frag,
	})
}

// checkForm parses r's form or query values and runs config validation.
func (s *PanelServer) checkForm(r *http.Request) (schema.ScraperConfig, *schema.ValidationResult) {
	if err := r.ParseForm(); err != nil {
		result := &schema.ValidationResult{}
		result.AddError("/", schema.ErrCodeDecode, err.Error())
		return schema.DefaultConfig(), result
	}
	cfg, result := configFromForm(r.Form)
	if !result.Valid() {
		return cfg, result
	}
	result.Merge(s.deps.Validator.ValidateConfig(cfg))
	return cfg, result
}
