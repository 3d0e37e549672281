package panel

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rendis/scrapegen/pkg/schema"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidation writes a 400 carrying the full issue list.
func writeValidation(w http.ResponseWriter, result *schema.ValidationResult) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":      "validation failed",
		"validation": result,
	})
}

// configFromForm reads a ScraperConfig from form or query values. Absent
// text and number fields keep their defaults; an absent checkbox is false,
// as browsers omit unchecked boxes.
func configFromForm(values url.Values) (schema.ScraperConfig, *schema.ValidationResult) {
	cfg := schema.DefaultConfig()
	result := &schema.ValidationResult{}

	if values.Has("subreddits") {
		cfg.Subreddits = values.Get("subreddits")
	}
	if values.Has("keywords") {
		cfg.Keywords = values.Get("keywords")
	}
	formInt(values, "days_old", &cfg.DaysOld, result)
	formInt(values, "schedule_hours", &cfg.ScheduleHours, result)
	cfg.CheckDuplicates = formBool(values.Get("check_duplicates"))

	return cfg, result
}

func formInt(values url.Values, key string, dst *int, result *schema.ValidationResult) {
	if !values.Has(key) {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(values.Get(key)))
	if err != nil {
		result.AddError(key, schema.ErrCodeValidation, "must be an integer")
		return
	}
	*dst = n
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// configQuery encodes cfg as the query string configFromForm reads back.
func configQuery(cfg schema.ScraperConfig) url.Values {
	q := url.Values{}
	q.Set("subreddits", cfg.Subreddits)
	q.Set("keywords", cfg.Keywords)
	q.Set("days_old", strconv.Itoa(cfg.DaysOld))
	q.Set("schedule_hours", strconv.Itoa(cfg.ScheduleHours))
	if cfg.CheckDuplicates {
		q.Set("check_duplicates", "on")
	}
	return q
}
