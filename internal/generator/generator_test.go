package generator

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/scrapegen/pkg/schema"
)

func scenarioConfig(dedup bool) schema.ScraperConfig {
	return schema.ScraperConfig{
		Subreddits:      "saas, startups",
		Keywords:        "need tool, looking for help",
		DaysOld:         7,
		ScheduleHours:   6,
		CheckDuplicates: dedup,
	}
}

func TestGenerate_WithDuplicateCheck(t *testing.T) {
	w := Generate(scenarioConfig(true))

	assert.Equal(t, WorkflowName, w.Name)
	assert.Equal(t, []string{NodeTrigger, NodeConfig, NodeSearch, NodeFilter, NodeDuplicates, NodeSave}, w.NodeNames())
	assert.Len(t, w.Connections, 5)
	assert.Equal(t, []string{NodeDuplicates}, w.Connections.Targets(NodeFilter))
	assert.Equal(t, []string{NodeSave}, w.Connections.Targets(NodeDuplicates))
}

func TestGenerate_WithoutDuplicateCheck(t *testing.T) {
	w := Generate(scenarioConfig(false))

	assert.Equal(t, []string{NodeTrigger, NodeConfig, NodeSearch, NodeFilter, NodeSave}, w.NodeNames())
	assert.Len(t, w.Connections, 4)
	assert.Equal(t, []string{NodeSave}, w.Connections.Targets(NodeFilter))
	_, ok := w.Node(NodeDuplicates)
	assert.False(t, ok)
	_, ok = w.Connections.Get(NodeDuplicates)
	assert.False(t, ok)
	for _, sc := range w.Connections {
		assert.NotContains(t, w.Connections.Targets(sc.Source), NodeDuplicates)
	}
}

func TestGenerate_ConfigVariables(t *testing.T) {
	w := Generate(scenarioConfig(true))
	n, ok := w.Node(NodeConfig)
	require.True(t, ok)

	data, err := n.Parameters.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"values":{"string":[{"name":"target_subreddits","value":"saas,startups"},{"name":"search_keywords","value":"need tool OR looking for help"},{"name":"max_days_old","value":"7"}]}}`,
		string(data))
}

func TestGenerate_TriggerInterval(t *testing.T) {
	cfg := scenarioConfig(true)
	cfg.ScheduleHours = 12
	n, ok := Generate(cfg).Node(NodeTrigger)
	require.True(t, ok)

	data, err := n.Parameters.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"rule":{"interval":[{"field":"hours","hours":12}]}}`, string(data))
	assert.Equal(t, 1.1, n.TypeVersion)
}

func TestGenerate_Positions(t *testing.T) {
	for _, dedup := range []bool{true, false} {
		w := Generate(scenarioConfig(dedup))
		save, ok := w.Node(NodeSave)
		require.True(t, ok)
		assert.Equal(t, []int{1250, 300}, save.Position)

		trigger, _ := w.Node(NodeTrigger)
		assert.Equal(t, []int{250, 300}, trigger.Position)
	}
	dup, ok := Generate(scenarioConfig(true)).Node(NodeDuplicates)
	require.True(t, ok)
	assert.Equal(t, []int{1050, 300}, dup.Position)
}

func TestGenerate_KindsAndCredentials(t *testing.T) {
	w := Generate(scenarioConfig(true))
	want := []schema.NodeKind{
		schema.KindScheduleTrigger,
		schema.KindVariableSet,
		schema.KindSearch,
		schema.KindTransform,
		schema.KindSpreadsheetLookup,
		schema.KindSpreadsheetAppend,
	}
	for i, n := range w.Nodes {
		assert.Equal(t, want[i], schema.KindOf(n), n.Name)
		assert.Equal(t, n.Name, n.ID)
	}

	search, _ := w.Node(NodeSearch)
	assert.Equal(t, RedditCredentialID, search.Credentials["redditOAuth2Api"].ID)
	save, _ := w.Node(NodeSave)
	assert.Equal(t, SheetsCredentialName, save.Credentials["googleSheetsOAuth2Api"].Name)
	filter, _ := w.Node(NodeFilter)
	assert.Empty(t, filter.Credentials)
}

func TestGenerate_EmptyLists(t *testing.T) {
	cfg := schema.ScraperConfig{Subreddits: " , ", Keywords: "", DaysOld: 3, ScheduleHours: 1}
	w := Generate(cfg)
	assert.Len(t, w.Nodes, 5)

	text, err := Render(cfg)
	require.NoError(t, err)
	assert.Contains(t, text, `"value": ""`)
}

func TestRender_Deterministic(t *testing.T) {
	cfg := scenarioConfig(true)
	first, err := Render(cfg)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Render(cfg)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestRender_Concurrent(t *testing.T) {
	cfg := scenarioConfig(false)
	want, err := Render(cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Render(cfg)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestRender_Format(t *testing.T) {
	text, err := Render(scenarioConfig(true))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "{\n  \"name\": \"Reddit Lead Scraper\",\n  \"nodes\": ["))
	assert.False(t, strings.HasSuffix(text, "\n"))
	assert.Contains(t, text, "return created > cutoff;")
	assert.Contains(t, text, `"typeVersion": 1.1`)
	assert.Contains(t, text, `"date": "={{ new Date($json.created * 1000).toISOString() }}"`)
	assert.Contains(t, text, `"options": {}`)
	assert.Less(t, strings.Index(text, `"Schedule Trigger": {`), strings.Index(text, `"Config": {`))
}

func TestRender_Golden(t *testing.T) {
	tests := []struct {
		golden string
		dedup  bool
	}{
		{"with_duplicate_check.golden.json", true},
		{"without_duplicate_check.golden.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			want, err := os.ReadFile(filepath.Join("testdata", tt.golden))
			require.NoError(t, err)

			got, err := Render(scenarioConfig(tt.dedup))
			require.NoError(t, err)
			assert.Equal(t, string(want), got)
		})
	}
}

func TestRender_RoundTrip(t *testing.T) {
	text, err := Render(scenarioConfig(true))
	require.NoError(t, err)

	w, err := schema.ParseWorkflow([]byte(text))
	require.NoError(t, err)
	again, err := w.Canonical()
	require.NoError(t, err)
	assert.Equal(t, text, string(again))
}

func TestFilterCode(t *testing.T) {
	code := FilterCode("Settings", "limit_days")
	assert.Contains(t, code, "$('Settings').item.json.limit_days")
	assert.True(t, strings.HasPrefix(code, "// Filter posts older than X days\n"))
}

func TestSummarize(t *testing.T) {
	s := Summarize(scenarioConfig(false))
	assert.Equal(t, []string{"saas", "startups"}, s.Targets)
	assert.Equal(t, "need tool OR looking for help", s.SearchTerm)
	assert.Equal(t, "Every 6 hours", s.Frequency)
	assert.Equal(t, "@every 6h", s.CronSpec)
	assert.Len(t, s.Nodes, 5)
}
