// Package panel serves the browser configurator.
package panel

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/rendis/scrapegen/internal/expressions"
	"github.com/rendis/scrapegen/internal/logging"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/internal/validation"
)

//go:embed templates static
var content embed.FS

// maxBodyBytes bounds request bodies on every POST route.
const maxBodyBytes = 1 << 20

// PanelDeps holds the dependencies for the panel server.
type PanelDeps struct {
	Validator *validation.WorkflowValidator
	Suggester suggest.Suggester
	Logger    *slog.Logger
	// Now is the clock used for schedule previews. Defaults to time.Now.
	Now func() time.Time
}

// PanelServer serves the configurator pages and the JSON API.
type PanelServer struct {
	deps  PanelDeps
	jq    *expressions.GoJQEngine
	pages map[string]*template.Template
}

// NewPanelServer creates a PanelServer with parsed templates.
func NewPanelServer(deps PanelDeps) (*PanelServer, error) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Validator == nil {
		v, err := validation.NewWorkflowValidator()
		if err != nil {
			return nil, fmt.Errorf("panel: build validator: %w", err)
		}
		deps.Validator = v
	}
	if deps.Suggester == nil {
		deps.Suggester = suggest.NewClient(suggest.Offline{}, deps.Logger)
	}

	base, err := template.New("").ParseFS(content, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("panel: parse base template: %w", err)
	}

	// Each page clones the base set so its {{define "content"}} stays private.
	pageFiles := []string{"form.html", "preview.html", "guide.html"}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if pages[pf], err = clone.ParseFS(content, "templates/"+pf); err != nil {
			return nil, fmt.Errorf("panel: parse %s: %w", pf, err)
		}
	}

	return &PanelServer{
		deps:  deps,
		jq:    expressions.NewGoJQEngine(),
		pages: pages,
	}, nil
}

// Handler returns the HTTP handler for the panel routes.
func (s *PanelServer) Handler() http.Handler {
	mux := http.NewServeMux()

	staticFS, _ := fs.Sub(content, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Pages.
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /preview", s.handlePreview)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("GET /diagram.png", s.handleDiagramImage)
	mux.HandleFunc("GET /guide", s.handleGuide)

	// JSON API.
	mux.HandleFunc("POST /api/workflow", s.handleAPIWorkflow)
	mux.HandleFunc("POST /api/suggest", s.handleAPISuggest)
	mux.HandleFunc("POST /api/validate", s.handleAPIValidate)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.withRequest(mux)
}

// withRequest tags each request with a request id and logs its outcome.
func (s *PanelServer) withRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = logging.WithRequestID(ctx, id)
		}
		ctx = logging.NewRequest(ctx, logging.SurfacePanel)
		w.Header().Set("X-Request-ID", logging.RequestID(ctx))

		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.deps.Logger.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// renderPage executes a page template by name.
func (s *PanelServer) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tmpl, ok := s.pages[page]
	if !ok {
		s.deps.Logger.ErrorContext(r.Context(), "template not found", "page", page)
		http.Error(w, fmt.Sprintf("template %q not found", page), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		s.deps.Logger.ErrorContext(r.Context(), "template render error", "page", page, "error", err)
	}
}
