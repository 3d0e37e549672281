// Package tui is the terminal configurator. It walks the same three steps as
// the browser panel: Configure, Get JSON, Setup Guide.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rendis/scrapegen/internal/generator"
	"github.com/rendis/scrapegen/internal/guide"
	"github.com/rendis/scrapegen/internal/logging"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/internal/validation"
	"github.com/rendis/scrapegen/pkg/schema"
)

// step is the screen the app shows.
type step int

const (
	stepConfigure step = iota
	stepPreview
	stepGuide
)

func (s step) title() string {
	switch s {
	case stepPreview:
		return "Get JSON"
	case stepGuide:
		return "Setup Guide"
	default:
		return "Configure"
	}
}

// Form fields in focus order. The checkbox is the last focus slot and has
// no text input.
const (
	fieldSubreddits = iota
	fieldKeywords
	fieldDaysOld
	fieldScheduleHours
	fieldCheckDuplicates
	fieldCount
)

// suggestMsg carries a finished suggestion round. Rounds older than the
// latest request are dropped.
type suggestMsg struct {
	seq      int
	keywords []string
	tips     string
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) AppOption {
	return func(a *App) {
		if write != nil {
			a.copyText = write
		}
	}
}

// WithOutputDir sets where "d" writes the workflow file.
func WithOutputDir(dir string) AppOption {
	return func(a *App) { a.outDir = dir }
}

// WithLogger sets the logger used for suggestion rounds and file writes.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithConfig sets the initial form values.
func WithConfig(cfg schema.ScraperConfig) AppOption {
	return func(a *App) { a.initial = cfg }
}

// App is the bubbletea model.
type App struct {
	step      step
	validator *validation.WorkflowValidator
	suggester suggest.Suggester
	logger    *slog.Logger
	copyText  func(string) error
	outDir    string
	initial   schema.ScraperConfig

	inputs          []textinput.Model
	checkDuplicates bool
	focus           int

	suggestSeq int
	suggesting bool
	tips       string
	spinner    spinner.Model

	config   schema.ScraperConfig
	document string
	issues   *schema.ValidationResult
	viewport viewport.Model

	statusMsg string
	width     int
	height    int
}

// NewApp creates the configurator.
func NewApp(validator *validation.WorkflowValidator, suggester suggest.Suggester, opts ...AppOption) *App {
	a := &App{
		validator: validator,
		suggester: suggester,
		logger:    slog.New(slog.DiscardHandler),
		copyText:  clipboard.WriteAll,
		outDir:    ".",
		initial:   schema.DefaultConfig(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport:  viewport.New(80, 20),
		width:     80,
		height:    24,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	a.inputs = make([]textinput.Model, fieldCheckDuplicates)
	for i := range a.inputs {
		in := textinput.New()
		in.Prompt = ""
		a.inputs[i] = in
	}
	a.inputs[fieldSubreddits].Placeholder = "saas, entrepreneur, startups"
	a.inputs[fieldKeywords].Placeholder = "looking for tools, need automation"
	a.inputs[fieldDaysOld].CharLimit = 2
	a.inputs[fieldScheduleHours].CharLimit = 2
	a.setForm(a.initial)
	a.inputs[fieldSubreddits].Focus()
	return a
}

func (a *App) setForm(cfg schema.ScraperConfig) {
	a.inputs[fieldSubreddits].SetValue(cfg.Subreddits)
	a.inputs[fieldKeywords].SetValue(cfg.Keywords)
	a.inputs[fieldDaysOld].SetValue(strconv.Itoa(cfg.DaysOld))
	a.inputs[fieldScheduleHours].SetValue(strconv.Itoa(cfg.ScheduleHours))
	a.checkDuplicates = cfg.CheckDuplicates
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = max(20, msg.Width-4)
		a.viewport.Height = max(5, msg.Height-8)
		return a, nil

	case suggestMsg:
		if msg.seq != a.suggestSeq {
			return a, nil
		}
		a.suggesting = false
		a.inputs[fieldKeywords].SetValue(strings.Join(msg.keywords, ", "))
		a.tips = msg.tips
		a.statusMsg = "Suggestions applied"
		return a, nil

	case spinner.TickMsg:
		if !a.suggesting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.step {
		case stepConfigure:
			return a.updateConfigure(msg)
		case stepPreview:
			return a.updatePreview(msg)
		case stepGuide:
			return a.updateGuide(msg)
		}
	}
	return a, nil
}

func (a *App) updateConfigure(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return a, a.setFocus((a.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return a, a.setFocus((a.focus + fieldCount - 1) % fieldCount)
	case " ", "x":
		if a.focus == fieldCheckDuplicates {
			a.checkDuplicates = !a.checkDuplicates
			return a, nil
		}
	case "ctrl+s":
		return a, a.startSuggest()
	case "enter", "ctrl+g":
		if msg.String() == "enter" && a.focus != fieldCheckDuplicates {
			return a, a.setFocus(a.focus + 1)
		}
		return a, a.generate()
	case "esc":
		return a, tea.Quit
	}

	if a.focus == fieldCheckDuplicates {
		return a, nil
	}
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	return a, cmd
}

func (a *App) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "left", "b":
		a.step = stepConfigure
		a.statusMsg = ""
		return a, a.setFocus(a.focus)
	case "c":
		if err := a.copyText(a.document); err != nil {
			a.statusMsg = fmt.Sprintf("Copy failed: %v", err)
		} else {
			a.statusMsg = "Copied workflow JSON to clipboard"
		}
		return a, nil
	case "d":
		path, err := a.download()
		if err != nil {
			a.statusMsg = fmt.Sprintf("Download failed: %v", err)
		} else {
			a.statusMsg = "Saved " + path
		}
		return a, nil
	case "g", "right", "enter":
		a.step = stepGuide
		a.statusMsg = ""
		a.viewport.SetContent(guide.Text(guide.Default()))
		a.viewport.GotoTop()
		return a, nil
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *App) updateGuide(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "left", "b":
		a.step = stepPreview
		a.viewport.SetContent(a.previewContent())
		a.viewport.GotoTop()
		return a, nil
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// setFocus moves focus to field i, clamped to the form.
func (a *App) setFocus(i int) tea.Cmd {
	a.focus = min(max(i, 0), fieldCount-1)
	var cmd tea.Cmd
	for j := range a.inputs {
		if j == a.focus {
			cmd = a.inputs[j].Focus()
		} else {
			a.inputs[j].Blur()
		}
	}
	return cmd
}

// formConfig reads the form. Number fields that do not parse are reported
// in the result.
func (a *App) formConfig() (schema.ScraperConfig, *schema.ValidationResult) {
	result := &schema.ValidationResult{}
	cfg := schema.ScraperConfig{
		Subreddits:      a.inputs[fieldSubreddits].Value(),
		Keywords:        a.inputs[fieldKeywords].Value(),
		CheckDuplicates: a.checkDuplicates,
	}
	var err error
	if cfg.DaysOld, err = strconv.Atoi(strings.TrimSpace(a.inputs[fieldDaysOld].Value())); err != nil {
		result.AddError("days_old", schema.ErrCodeValidation, "must be an integer")
	}
	if cfg.ScheduleHours, err = strconv.Atoi(strings.TrimSpace(a.inputs[fieldScheduleHours].Value())); err != nil {
		result.AddError("schedule_hours", schema.ErrCodeValidation, "must be an integer")
	}
	return cfg, result
}

// generate validates the form and, when it passes, moves to the preview.
func (a *App) generate() tea.Cmd {
	cfg, result := a.formConfig()
	if result.Valid() {
		result.Merge(a.validator.ValidateConfig(cfg))
	}
	a.issues = result
	if !result.Valid() {
		a.statusMsg = fmt.Sprintf("%d problem(s) in the form", len(result.Errors))
		return nil
	}

	doc, err := generator.Render(cfg)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Generation failed: %v", err)
		return nil
	}
	a.config = cfg
	a.document = doc
	a.step = stepPreview
	a.statusMsg = ""
	a.viewport.SetContent(a.previewContent())
	a.viewport.GotoTop()
	return nil
}

// startSuggest begins a suggestion round. Earlier rounds still in flight
// are superseded.
func (a *App) startSuggest() tea.Cmd {
	a.suggestSeq++
	a.suggesting = true
	a.statusMsg = "Asking for suggestions..."
	return tea.Batch(a.spinner.Tick, a.suggestCmd(a.suggestSeq, suggest.TipsRequest{
		Subreddits: a.inputs[fieldSubreddits].Value(),
		Keywords:   a.inputs[fieldKeywords].Value(),
	}))
}

func (a *App) suggestCmd(seq int, req suggest.TipsRequest) tea.Cmd {
	sg := a.suggester
	return func() tea.Msg {
		ctx := logging.NewRequest(context.Background(), logging.SurfaceTUI)
		return suggestMsg{
			seq:      seq,
			keywords: sg.SuggestKeywords(ctx, req.Subreddits),
			tips:     sg.SuggestOptimizationTips(ctx, req),
		}
	}
}

// download writes the current document to the output directory.
func (a *App) download() (string, error) {
	path := filepath.Join(a.outDir, generator.Filename)
	if err := os.WriteFile(path, []byte(a.document), 0o644); err != nil {
		return "", err
	}
	a.logger.Info("workflow saved", "path", path)
	return path, nil
}
