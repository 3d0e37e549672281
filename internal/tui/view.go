package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/scrapegen/internal/diagram"
	"github.com/rendis/scrapegen/internal/generator"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F97316")).
			MarginBottom(1)
	activeStepStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F97316"))
	stepStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	focusLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	boxStyle        = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

var fieldLabels = [fieldCount]string{
	"Target subreddits",
	"Keywords",
	"Max post age (days, 1-30)",
	"Run every N hours (1, 6, 12, 24)",
	"Skip posts already saved",
}

// View renders the current step.
func (a *App) View() string {
	var body, hint string
	switch a.step {
	case stepConfigure:
		body = a.viewConfigure()
		hint = "tab/↑↓ move · space toggle · ctrl+s AI suggest · ctrl+g generate · esc quit"
	case stepPreview:
		body = boxStyle.Render(a.viewport.View())
		hint = "↑↓ scroll · c copy · d download · g guide · esc back · q quit"
	case stepGuide:
		body = boxStyle.Render(a.viewport.View())
		hint = "↑↓ scroll · esc back · q quit"
	}

	sections := []string{
		headerStyle.Render("Reddit Lead Scraper"),
		a.viewSteps(),
		body,
	}
	if a.statusMsg != "" {
		status := a.statusMsg
		if a.suggesting {
			status = a.spinner.View() + " " + status
		}
		sections = append(sections, status)
	}
	sections = append(sections, hintStyle.Render(hint))
	return strings.Join(sections, "\n")
}

func (a *App) viewSteps() string {
	parts := make([]string, 0, 3)
	for _, s := range []step{stepConfigure, stepPreview, stepGuide} {
		label := fmt.Sprintf("%d. %s", int(s)+1, s.title())
		if s == a.step {
			parts = append(parts, activeStepStyle.Render(label))
		} else {
			parts = append(parts, stepStyle.Render(label))
		}
	}
	return strings.Join(parts, stepStyle.Render("  →  ")) + "\n"
}

func (a *App) viewConfigure() string {
	var b strings.Builder
	for i := 0; i < fieldCount; i++ {
		style := labelStyle
		if i == a.focus {
			style = focusLabelStyle
		}
		if i == fieldCheckDuplicates {
			box := "[ ]"
			if a.checkDuplicates {
				box = "[x]"
			}
			fmt.Fprintf(&b, "%s %s\n", box, style.Render(fieldLabels[i]))
			continue
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", style.Render(fieldLabels[i]), a.inputs[i].View())
	}

	if a.tips != "" {
		fmt.Fprintf(&b, "\n%s\n", labelStyle.Render(a.tips))
	}
	if a.issues != nil {
		for _, issue := range a.issues.Errors {
			fmt.Fprintf(&b, "%s\n", errorStyle.Render(fmt.Sprintf("✗ %s: %s", issue.Path, issue.Message)))
		}
		for _, issue := range a.issues.Warnings {
			fmt.Fprintf(&b, "%s\n", warnStyle.Render(fmt.Sprintf("! %s: %s", issue.Path, issue.Message)))
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// previewContent is the scrollable text of the Get JSON step: a summary,
// the flow as ASCII boxes, then the document itself.
func (a *App) previewContent() string {
	s := generator.Summarize(a.config)

	var b strings.Builder
	fmt.Fprintf(&b, "Subreddits:  %s\n", strings.Join(s.Targets, ", "))
	fmt.Fprintf(&b, "Search term: %s\n", s.SearchTerm)
	fmt.Fprintf(&b, "Frequency:   %s (%s)\n", s.Frequency, s.CronSpec)
	fmt.Fprintf(&b, "Max age:     %d day(s)\n", s.DaysOld)
	fmt.Fprintf(&b, "Dedup:       %t\n", s.CheckDuplicates)
	if a.issues != nil {
		for _, issue := range a.issues.Warnings {
			fmt.Fprintf(&b, "! %s: %s\n", issue.Path, issue.Message)
		}
	}
	if model, err := diagram.Build(generator.Generate(a.config)); err == nil {
		fmt.Fprintf(&b, "\n%s\n", diagram.RenderASCII(model))
	}
	b.WriteString(a.document)
	return b.String()
}
