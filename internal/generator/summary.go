package generator

import (
	"strings"

	"github.com/rendis/scrapegen/internal/schedule"
	"github.com/rendis/scrapegen/pkg/schema"
)

// Summary is a human-oriented digest of what Generate produces for a config.
type Summary struct {
	Targets         []string `json:"targets"`
	Keywords        []string `json:"keywords"`
	SearchTerm      string   `json:"search_term"`
	Frequency       string   `json:"frequency"`
	CronSpec        string   `json:"cron_spec"`
	DaysOld         int      `json:"days_old"`
	CheckDuplicates bool     `json:"check_duplicates"`
	Nodes           []string `json:"nodes"`
}

// Summarize describes the workflow cfg generates.
func Summarize(cfg schema.ScraperConfig) Summary {
	keywords := cfg.KeywordList()
	return Summary{
		Targets:         cfg.Targets(),
		Keywords:        keywords,
		SearchTerm:      strings.Join(keywords, KeywordSeparator),
		Frequency:       schedule.Describe(cfg.ScheduleHours),
		CronSpec:        schedule.CronSpec(cfg.ScheduleHours),
		DaysOld:         cfg.DaysOld,
		CheckDuplicates: cfg.CheckDuplicates,
		Nodes:           Generate(cfg).NodeNames(),
	}
}
