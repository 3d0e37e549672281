package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"trims and drops empties", " a, b ,, c ", []string{"a", "b", "c"}},
		{"keeps duplicates", "x, x,y", []string{"x", "x", "y"}},
		{"keeps order", "c,b,a", []string{"c", "b", "a"}},
		{"empty string", "", []string{}},
		{"only separators", " , ,,", []string{}},
		{"inner spaces survive", "need a tool , looking for help", []string{"need a tool", "looking for help"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseList(tc.input))
		})
	}
}

func TestParseList_Idempotent(t *testing.T) {
	first := ParseList(" a, b ,, c ")
	second := ParseList(joinComma(first))
	assert.Equal(t, first, second)
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func TestScraperConfig_Lists(t *testing.T) {
	cfg := ScraperConfig{Subreddits: "saas, startups", Keywords: "need tool, looking for help"}
	assert.Equal(t, []string{"saas", "startups"}, cfg.Targets())
	assert.Equal(t, []string{"need tool", "looking for help"}, cfg.KeywordList())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"saas", "entrepreneur", "startups"}, cfg.Targets())
	assert.Equal(t, 7, cfg.DaysOld)
	assert.Equal(t, 6, cfg.ScheduleHours)
	assert.True(t, cfg.CheckDuplicates)
}

func TestIsAllowedScheduleHours(t *testing.T) {
	for _, h := range []int{1, 6, 12, 24} {
		assert.True(t, IsAllowedScheduleHours(h), "hours %d", h)
	}
	for _, h := range []int{0, 2, 48, -6} {
		assert.False(t, IsAllowedScheduleHours(h), "hours %d", h)
	}
}
