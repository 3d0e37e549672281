package configfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/scrapegen/pkg/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var want = schema.ScraperConfig{
	Subreddits:      "saas, startups",
	Keywords:        "need tool",
	DaysOld:         3,
	ScheduleHours:   12,
	CheckDuplicates: false,
}

func TestLoad_AllFormats(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"cfg.json", `{"subreddits":"saas, startups","keywords":"need tool","days_old":3,"schedule_hours":12,"check_duplicates":false}`},
		{"cfg.yaml", "subreddits: saas, startups\nkeywords: need tool\ndays_old: 3\nschedule_hours: 12\ncheck_duplicates: false\n"},
		{"cfg.yml", "subreddits: saas, startups\nkeywords: need tool\ndays_old: 3\nschedule_hours: 12\ncheck_duplicates: false\n"},
		{"cfg.toml", "subreddits = \"saas, startups\"\nkeywords = \"need tool\"\ndays_old = 3\nschedule_hours = 12\ncheck_duplicates = false\n"},
		{"cfg.hcl", "subreddits = \"saas, startups\"\nkeywords = \"need tool\"\ndays_old = 3\nschedule_hours = 12\ncheck_duplicates = false\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tc.name, tc.content))
			require.NoError(t, err)
			assert.Equal(t, want, cfg)
		})
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "cfg.yaml", "days_old: 14\n"))
	require.NoError(t, err)
	def := schema.DefaultConfig()
	assert.Equal(t, 14, cfg.DaysOld)
	assert.Equal(t, def.Subreddits, cfg.Subreddits)
	assert.Equal(t, def.CheckDuplicates, cfg.CheckDuplicates)
}

func TestLoad_HCLRequiresAllAttributes(t *testing.T) {
	_, err := Load(writeFile(t, "cfg.hcl", "days_old = 14\n"))
	require.Error(t, err)
	var sErr *schema.Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, schema.ErrCodeDecode, sErr.Code)
}

func TestLoad_UnknownKeys(t *testing.T) {
	for name, content := range map[string]string{
		"cfg.json": `{"days_old": 3, "subreddit": "typo"}`,
		"cfg.yaml": "subreddit: typo\n",
		"cfg.toml": "subreddit = \"typo\"\n",
		"cfg.hcl":  "subreddits = \"a\"\nkeywords = \"b\"\ndays_old = 3\nschedule_hours = 6\ncheck_duplicates = true\nextra = 1\n",
	} {
		_, err := Load(writeFile(t, name, content))
		assert.Error(t, err, name)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "cfg.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "cfg.json", `{"days_old": "seven"}`))
	assert.ErrorContains(t, err, "invalid json config")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{".json", ".yaml", ".toml", ".hcl"} {
		path := filepath.Join(dir, "cfg"+ext)
		require.NoError(t, Save(path, want), ext)
		got, err := Load(path)
		require.NoError(t, err, ext)
		assert.Equal(t, want, got, ext)
	}
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("/tmp/x.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
}
