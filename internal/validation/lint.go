package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rendis/scrapegen/internal/expressions"
	"github.com/rendis/scrapegen/pkg/schema"
)

// MaxKeywords is the keyword count past which searches get noisy.
const MaxKeywords = 10

// lintRule is an expr predicate over the parsed config. A true result
// raises the warning.
type lintRule struct {
	Path    string
	When    string
	Message string
}

var lintRules = []lintRule{
	{Path: "subreddits", When: `len(targets) == 0`,
		Message: "no subreddits given; the search node will run without a subreddit filter"},
	{Path: "subreddits", When: `any(targets, {# startsWith "r/" || # startsWith "/r/"})`,
		Message: `subreddits should be plain names, drop the "r/" prefix`},
	{Path: "keywords", When: `len(keywords) == 0`,
		Message: "no keywords given; every recent post will be collected"},
	{Path: "keywords", When: fmt.Sprintf(`len(keywords) > %d`, MaxKeywords),
		Message: fmt.Sprintf("more than %d keywords make the OR query broad and slow", MaxKeywords)},
	{Path: "keywords", When: `duplicate_keywords > 0`,
		Message: "keywords contain duplicates"},
	{Path: "check_duplicates", When: `!check_duplicates`,
		Message: "duplicate check is off; repeated runs append the same posts again"},
}

// lintConfig runs lintRules against cfg. Rule failures surface as
// expression errors, never as panics.
func lintConfig(ctx context.Context, engine expressions.Engine, cfg schema.ScraperConfig) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	env := lintEnv(cfg)

	for _, rule := range lintRules {
		hit, err := expressions.EvaluateBool(ctx, engine, rule.When, env)
		if err != nil {
			result.AddError(rule.Path, schema.ErrCodeExpression, err.Error())
			continue
		}
		if hit {
			result.AddWarning(rule.Path, schema.ErrCodeValidation, rule.Message)
		}
	}
	return result
}

func lintEnv(cfg schema.ScraperConfig) map[string]any {
	targets := cfg.Targets()
	keywords := cfg.KeywordList()
	return map[string]any{
		"targets":            toAny(targets),
		"keywords":           toAny(keywords),
		"duplicate_keywords": countDuplicates(keywords),
		"days_old":           cfg.DaysOld,
		"schedule_hours":     cfg.ScheduleHours,
		"check_duplicates":   cfg.CheckDuplicates,
	}
}

// countDuplicates counts entries that repeat an earlier one, ignoring case.
func countDuplicates(items []string) int {
	seen := make(map[string]bool, len(items))
	dup := 0
	for _, it := range items {
		k := strings.ToLower(it)
		if seen[k] {
			dup++
		}
		seen[k] = true
	}
	return dup
}

func toAny(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
