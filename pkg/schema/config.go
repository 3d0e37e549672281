package schema

import "strings"

// Input-boundary limits for ScraperConfig. The generator itself never
// enforces them.
const (
	MinDaysOld = 1
	MaxDaysOld = 30
)

// AllowedScheduleHours lists the run intervals offered at the input boundary.
var AllowedScheduleHours = []int{1, 6, 12, 24}

// ScraperConfig is the user-facing description of a lead scraping workflow.
// Subreddits and Keywords are comma-delimited free text.
type ScraperConfig struct {
	Subreddits      string `json:"subreddits" yaml:"subreddits" toml:"subreddits" hcl:"subreddits"`
	Keywords        string `json:"keywords" yaml:"keywords" toml:"keywords" hcl:"keywords"`
	DaysOld         int    `json:"days_old" yaml:"days_old" toml:"days_old" hcl:"days_old"`
	ScheduleHours   int    `json:"schedule_hours" yaml:"schedule_hours" toml:"schedule_hours" hcl:"schedule_hours"`
	CheckDuplicates bool   `json:"check_duplicates" yaml:"check_duplicates" toml:"check_duplicates" hcl:"check_duplicates"`
}

// DefaultConfig returns the values the configurator form starts with.
func DefaultConfig() ScraperConfig {
	return ScraperConfig{
		Subreddits:      "saas, entrepreneur, startups",
		Keywords:        "looking for tools, need automation, seeking developer",
		DaysOld:         7,
		ScheduleHours:   6,
		CheckDuplicates: true,
	}
}

// Targets returns the parsed subreddit list.
func (c ScraperConfig) Targets() []string {
	return ParseList(c.Subreddits)
}

// KeywordList returns the parsed keyword list.
func (c ScraperConfig) KeywordList() []string {
	return ParseList(c.Keywords)
}

// ParseList splits s on commas, trims each entry and drops entries that are
// empty after trimming. Order and repeated entries are preserved.
func ParseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsAllowedScheduleHours reports whether h is one of AllowedScheduleHours.
func IsAllowedScheduleHours(h int) bool {
	for _, v := range AllowedScheduleHours {
		if v == h {
			return true
		}
	}
	return false
}
