// Package schedule previews the run cadence of a generated workflow. The
// n8n trigger owns the real schedule; nothing here runs jobs.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CronSpec returns the cron descriptor equivalent to running every hours.
func CronSpec(hours int) string {
	return fmt.Sprintf("@every %dh", hours)
}

// Parse validates a cron expression or descriptor.
func Parse(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	return sched, nil
}

// Every returns the constant-delay schedule for an interval in hours.
func Every(hours int) (cron.Schedule, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("schedule interval must be positive, got %d hours", hours)
	}
	return cron.Every(time.Duration(hours) * time.Hour), nil
}

// Preview lists the next n run times after from.
func Preview(hours int, from time.Time, n int) ([]time.Time, error) {
	sched, err := Every(hours)
	if err != nil {
		return nil, err
	}
	return NextRuns(sched, from, n), nil
}

// NextRuns walks sched n times starting after from.
func NextRuns(sched cron.Schedule, from time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		out = append(out, t)
	}
	return out
}

// Describe renders the interval as the configurator labels it.
func Describe(hours int) string {
	switch {
	case hours == 1:
		return "Every hour"
	case hours == 24:
		return "Daily"
	default:
		return fmt.Sprintf("Every %d hours", hours)
	}
}
