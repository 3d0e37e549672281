package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rendis/scrapegen/internal/configfile"
	"github.com/rendis/scrapegen/internal/logging"
	"github.com/rendis/scrapegen/internal/suggest"
	"github.com/rendis/scrapegen/pkg/schema"
)

// configFlags are the ScraperConfig flags shared by generate, diagram and
// tui. A --config file is loaded first; explicitly set flags override it.
type configFlags struct {
	path            string
	subreddits      string
	keywords        string
	daysOld         int
	scheduleHours   int
	checkDuplicates bool
}

func (c *configFlags) register(fs *flag.FlagSet) {
	def := schema.DefaultConfig()
	fs.StringVar(&c.path, "config", "", "config file (.json, .yaml, .yml, .toml, .hcl)")
	fs.StringVar(&c.subreddits, "subreddits", def.Subreddits, "comma-separated subreddits")
	fs.StringVar(&c.keywords, "keywords", def.Keywords, "comma-separated keywords")
	fs.IntVar(&c.daysOld, "days-old", def.DaysOld, "drop posts older than this many days (1-30)")
	fs.IntVar(&c.scheduleHours, "schedule-hours", def.ScheduleHours, "run interval in hours (1, 6, 12, 24)")
	fs.BoolVar(&c.checkDuplicates, "check-duplicates", def.CheckDuplicates, "skip posts already in the sheet")
}

// resolve builds the config after fs.Parse.
func (c *configFlags) resolve(fs *flag.FlagSet) (schema.ScraperConfig, error) {
	cfg := schema.DefaultConfig()
	if c.path != "" {
		loaded, err := configfile.Load(c.path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "subreddits":
			cfg.Subreddits = c.subreddits
		case "keywords":
			cfg.Keywords = c.keywords
		case "days-old":
			cfg.DaysOld = c.daysOld
		case "schedule-hours":
			cfg.ScheduleHours = c.scheduleHours
		case "check-duplicates":
			cfg.CheckDuplicates = c.checkDuplicates
		}
	})
	return cfg, nil
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// newLogger builds the stderr logger at the configured level.
func newLogger(level string) (*slog.Logger, *slog.LevelVar) {
	lv := new(slog.LevelVar)
	if l, err := logging.ParseLevel(level); err == nil {
		lv.Set(l)
	}
	return logging.New(os.Stderr, lv), lv
}

// newSuggester builds the suggestion client from process settings.
func newSuggester(cfg Config, logger *slog.Logger) (*suggest.Client, error) {
	p, err := suggest.NewProvider(cfg.providerConfig())
	if err != nil {
		return nil, err
	}
	return suggest.NewClient(p, logger), nil
}

// printIssues writes one line per error and warning.
func printIssues(w io.Writer, result *schema.ValidationResult) {
	for _, issue := range result.Errors {
		fmt.Fprintf(w, "error   %s: %s [%s]\n", issue.Path, issue.Message, issue.Code)
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(w, "warning %s: %s [%s]\n", issue.Path, issue.Message, issue.Code)
	}
}
