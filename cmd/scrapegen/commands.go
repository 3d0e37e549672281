package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rendis/scrapegen/internal/configfile"
	"github.com/rendis/scrapegen/internal/diagram"
	"github.com/rendis/scrapegen/internal/expressions"
	"github.com/rendis/scrapegen/internal/generator"
	"github.com/rendis/scrapegen/internal/guide"
	"github.com/rendis/scrapegen/internal/logging"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/internal/tui"
	"github.com/rendis/scrapegen/internal/validation"
	"github.com/rendis/scrapegen/pkg/mcp"
	"github.com/rendis/scrapegen/pkg/schema"
)

type generateOptions struct {
	query   string
	summary bool
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var cf configFlags
	cf.register(fs)
	out := fs.String("out", "", "write the workflow here instead of stdout (\"-\" for stdout)")
	query := fs.String("query", "", "jq expression applied to the generated workflow")
	summary := fs.Bool("summary", false, "print a JSON summary instead of the workflow")
	saveConfig := fs.String("save-config", "", "also write the resolved config to this file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := cf.resolve(fs)
	if err != nil {
		fatalf("%v", err)
	}
	validator, err := validation.NewWorkflowValidator()
	if err != nil {
		fatalf("%v", err)
	}
	result := validator.ValidateConfig(cfg)
	printIssues(os.Stderr, result)
	if !result.Valid() {
		os.Exit(1)
	}

	if *saveConfig != "" {
		if err := configfile.Save(*saveConfig, cfg); err != nil {
			fatalf("%v", err)
		}
	}

	w, closeOut, err := openOutput(*out)
	if err != nil {
		fatalf("%v", err)
	}
	defer closeOut()
	if err := generate(context.Background(), w, cfg, generateOptions{query: *query, summary: *summary}); err != nil {
		fatalf("%v", err)
	}
	if *out != "" && *out != "-" {
		fmt.Fprintf(os.Stderr, "Workflow written to %s\n", *out)
	}
}

// generate writes the workflow for cfg, its summary or a jq projection of it.
func generate(ctx context.Context, w io.Writer, cfg schema.ScraperConfig, opts generateOptions) error {
	if opts.summary {
		return writeIndented(w, generator.Summarize(cfg))
	}
	if opts.query != "" {
		result, err := expressions.NewGoJQEngine().Query(ctx, opts.query, generator.Generate(cfg))
		if err != nil {
			return err
		}
		return writeIndented(w, result)
	}
	doc, err := generator.Render(cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, doc)
	return err
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "config file the document was generated from")
	var assertions stringList
	fs.Var(&assertions, "assert", "extra CEL assertion over doc and config (repeatable)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: scrapegen validate [flags] [workflow.json|-]")
		fmt.Fprintln(fs.Output(), "With no document, validates the --config file only.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	validator, err := validation.NewWorkflowValidator()
	if err != nil {
		fatalf("%v", err)
	}

	var opts validation.DocumentOptions
	opts.Assertions = assertions
	if *configPath != "" {
		cfg, err := configfile.Load(*configPath)
		if err != nil {
			fatalf("%v", err)
		}
		opts.Config = &cfg
	}

	var data []byte
	switch path := fs.Arg(0); path {
	case "":
		if opts.Config == nil {
			fs.Usage()
			os.Exit(2)
		}
	case "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fatalf("%v", err)
	}

	ok := validate(context.Background(), os.Stdout, validator, data, opts)
	if !ok {
		os.Exit(1)
	}
}

// validate checks data as a workflow document, or only opts.Config when
// data is empty. It reports whether the input is valid.
func validate(ctx context.Context, w io.Writer, validator *validation.WorkflowValidator, data []byte, opts validation.DocumentOptions) bool {
	var result *schema.ValidationResult
	if len(data) == 0 {
		result = validator.ValidateConfig(*opts.Config)
	} else {
		_, result = validator.ValidateDocumentJSON(ctx, data, opts)
	}
	printIssues(w, result)
	if result.Valid() {
		fmt.Fprintln(w, "ok")
		return true
	}
	return false
}

func runDiagram(args []string) {
	fs := flag.NewFlagSet("diagram", flag.ExitOnError)
	var cf configFlags
	cf.register(fs)
	format := fs.String("format", "mermaid", "output format: mermaid, ascii, png")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	cfg, err := cf.resolve(fs)
	if err != nil {
		fatalf("%v", err)
	}

	w, closeOut, err := openOutput(*out)
	if err != nil {
		fatalf("%v", err)
	}
	defer closeOut()
	if err := drawDiagram(context.Background(), w, cfg, *format, binDir()); err != nil {
		fatalf("%v", err)
	}
}

// drawDiagram renders the workflow for cfg in format. ASCII output uses
// mermaid-ascii from bin when it is installed.
func drawDiagram(ctx context.Context, w io.Writer, cfg schema.ScraperConfig, format, bin string) error {
	model, err := diagram.Build(generator.Generate(cfg))
	if err != nil {
		return err
	}
	switch format {
	case "mermaid":
		_, err = fmt.Fprintln(w, diagram.RenderMermaid(model))
	case "ascii":
		_, err = fmt.Fprintln(w, diagram.RenderASCIIAuto(model, bin))
	case "png":
		var img []byte
		if img, err = diagram.RenderImage(ctx, model); err == nil {
			_, err = w.Write(img)
		}
	default:
		err = schema.NewErrorf(schema.ErrCodeValidation, "unknown diagram format %q", format).WithField("format")
	}
	return err
}

func runSuggest(args []string) {
	base := loadConfig()
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	subreddits := fs.String("subreddits", schema.DefaultConfig().Subreddits, "comma-separated subreddits")
	keywords := fs.String("keywords", "", "comma-separated keywords (used with --tips)")
	tips := fs.Bool("tips", false, "also ask for optimization tips")
	provider := fs.String("provider", base.Provider, "suggestion provider: gemini, openai, ollama, offline")
	model := fs.String("model", base.Model, "provider model")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	base.Model = *model
	if *provider != base.Provider {
		base.Provider = *provider
		base.APIKey = apiKeyFor(base.Provider, os.Getenv)
	}
	logger, _ := newLogger(base.LogLevel)
	client, err := newSuggester(base, logger)
	if err != nil {
		fatalf("%v", err)
	}

	ctx := logging.NewRequest(context.Background(), logging.SurfaceCLI)
	req := suggest.TipsRequest{Subreddits: *subreddits, Keywords: *keywords}
	if err := suggestTo(ctx, os.Stdout, client, req, *tips); err != nil {
		fatalf("%v", err)
	}
}

// suggestTo prints suggested keywords one per line, followed by tips when
// requested. Without explicit keywords the tips use the suggested ones.
func suggestTo(ctx context.Context, w io.Writer, s suggest.Suggester, req suggest.TipsRequest, tips bool) error {
	keywords := s.SuggestKeywords(ctx, req.Subreddits)
	for _, k := range keywords {
		if _, err := fmt.Fprintln(w, k); err != nil {
			return err
		}
	}
	if !tips {
		return nil
	}
	if req.Keywords == "" {
		req.Keywords = strings.Join(keywords, ", ")
	}
	_, err := fmt.Fprintf(w, "\n%s\n", s.SuggestOptimizationTips(ctx, req))
	return err
}

func runGuide(args []string) {
	fs := flag.NewFlagSet("guide", flag.ExitOnError)
	asHTML := fs.Bool("html", false, "print the HTML fragment instead of text")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	g := guide.Default()
	var err error
	if *asHTML {
		err = guide.WriteHTML(os.Stdout, g)
	} else {
		err = guide.WriteText(os.Stdout, g)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func runTUI(args []string) {
	base := loadConfig()
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	var cf configFlags
	cf.register(fs)
	outDir := fs.String("out-dir", ".", "directory the download key writes to")
	logFile := fs.String("log-file", "", "write logs here (the terminal is owned by the UI)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	cfg, err := cf.resolve(fs)
	if err != nil {
		fatalf("%v", err)
	}

	logOut := io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fatalf("%v", err)
		}
		defer f.Close()
		logOut = f
	}
	lv := new(slog.LevelVar)
	if l, err := logging.ParseLevel(base.LogLevel); err == nil {
		lv.Set(l)
	}
	logger := logging.New(logOut, lv)

	validator, err := validation.NewWorkflowValidator()
	if err != nil {
		fatalf("%v", err)
	}
	client, err := newSuggester(base, logger)
	if err != nil {
		fatalf("%v", err)
	}

	app := tui.NewApp(validator, client,
		tui.WithConfig(cfg),
		tui.WithOutputDir(*outDir),
		tui.WithLogger(logger),
	)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		fatalf("%v", err)
	}
}

func runMCP(args []string) {
	base := loadConfig()
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	// stdout carries the protocol; logs go to stderr.
	logger, _ := newLogger(base.LogLevel)
	validator, err := validation.NewWorkflowValidator()
	if err != nil {
		fatalf("%v", err)
	}
	client, err := newSuggester(base, logger)
	if err != nil {
		fatalf("%v", err)
	}
	srv, err := mcp.NewServer(mcp.ServerDeps{
		Validator: validator,
		Suggester: client,
		Logger:    logger,
		Version:   buildVersion(),
	})
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		fatalf("%v", err)
	}
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
