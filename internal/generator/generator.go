// Package generator turns a ScraperConfig into an importable n8n workflow
// document. Generation is pure: no I/O, no clocks, no randomness.
package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rendis/scrapegen/pkg/schema"
)

// WorkflowName is the name of every generated document.
const WorkflowName = "Reddit Lead Scraper"

// Filename is the suggested name for a downloaded document.
const Filename = "reddit-scraper-n8n.json"

// Node names. They double as node ids.
const (
	NodeTrigger    = "Schedule Trigger"
	NodeConfig     = "Config"
	NodeSearch     = "Reddit Search"
	NodeFilter     = "Date Filter"
	NodeDuplicates = "Check Duplicates"
	NodeSave       = "Save to Sheets"
)

// Variables the Config node exposes to downstream nodes.
const (
	VarSubreddits = "target_subreddits"
	VarKeywords   = "search_keywords"
	VarMaxDaysOld = "max_days_old"
)

// Placeholders the user replaces inside n8n after import.
const (
	RedditCredentialID   = "YOUR_REDDIT_CREDENTIALS_ID"
	RedditCredentialName = "Reddit account"
	SheetURLPlaceholder  = "INSERT_YOUR_GOOGLE_SHEET_URL_HERE"
	SheetsCredentialID   = "YOUR_GOOGLE_SHEETS_CREDENTIALS_ID"
	SheetsCredentialName = "Google Sheets account"
)

const (
	searchLimit = 50
	sheetRange  = "A:E"

	originX = 250
	originY = 300
	stepX   = 200
)

// KeywordSeparator joins keywords into the search term.
const KeywordSeparator = " OR "

// Slot positions on the canvas. The duplicate check keeps its slot even
// when absent so the save node never moves.
const (
	slotTrigger = iota
	slotConfig
	slotSearch
	slotFilter
	slotDuplicates
	slotSave
)

const filterCodeTemplate = `// Filter posts older than X days
const days = parseInt($('%s').item.json.%s);
const cutoff = new Date();
cutoff.setDate(cutoff.getDate() - days);

return items.filter(item => {
  const created = new Date(item.json.created * 1000);
  return created > cutoff;
});`

// Generate builds the workflow document for cfg. It never fails: bounds on
// cfg are checked at the input boundary, not here.
func Generate(cfg schema.ScraperConfig) *schema.Workflow {
	w, err := build(cfg)
	if err != nil {
		// Node names and edges are constants; reaching this is a programming error.
		panic(fmt.Sprintf("generator: %v", err))
	}
	return w
}

// Render returns the canonical JSON text of Generate(cfg).
func Render(cfg schema.ScraperConfig) (string, error) {
	data, err := Generate(cfg).Canonical()
	if err != nil {
		return "", fmt.Errorf("render workflow: %w", err)
	}
	return string(data), nil
}

func build(cfg schema.ScraperConfig) (*schema.Workflow, error) {
	b := NewBuilder(WorkflowName)

	chain := []schema.Node{
		triggerNode(cfg.ScheduleHours),
		configNode(cfg),
		searchNode(),
		filterNode(),
	}
	if cfg.CheckDuplicates {
		chain = append(chain, duplicatesNode())
	}
	chain = append(chain, saveNode())

	names := make([]string, 0, len(chain))
	for _, n := range chain {
		if err := b.AddNode(n); err != nil {
			return nil, err
		}
		names = append(names, n.Name)
	}
	if err := b.Chain(names...); err != nil {
		return nil, err
	}
	return b.Build()
}

func newNode(kind schema.NodeKind, name string, slot int, params schema.Params) schema.Node {
	spec, _ := kind.Spec()
	return schema.Node{
		Parameters:  params,
		ID:          name,
		Name:        name,
		Type:        spec.Type,
		TypeVersion: spec.TypeVersion,
		Position:    []int{originX + stepX*slot, originY},
	}
}

func triggerNode(hours int) schema.Node {
	return newNode(schema.KindScheduleTrigger, NodeTrigger, slotTrigger, schema.Params{
		{Key: "rule", Value: schema.Params{
			{Key: "interval", Value: []any{
				schema.Params{
					{Key: "field", Value: "hours"},
					{Key: "hours", Value: hours},
				},
			}},
		}},
	})
}

func configNode(cfg schema.ScraperConfig) schema.Node {
	variable := func(name, value string) schema.Params {
		return schema.Params{{Key: "name", Value: name}, {Key: "value", Value: value}}
	}
	return newNode(schema.KindVariableSet, NodeConfig, slotConfig, schema.Params{
		{Key: "values", Value: schema.Params{
			{Key: "string", Value: []any{
				variable(VarSubreddits, strings.Join(cfg.Targets(), ",")),
				variable(VarKeywords, strings.Join(cfg.KeywordList(), KeywordSeparator)),
				variable(VarMaxDaysOld, strconv.Itoa(cfg.DaysOld)),
			}},
		}},
	})
}

func searchNode() schema.Node {
	n := newNode(schema.KindSearch, NodeSearch, slotSearch, schema.Params{
		{Key: "resource", Value: "post"},
		{Key: "operation", Value: "getAll"},
		{Key: "limit", Value: searchLimit},
		{Key: "filters", Value: schema.Params{
			{Key: "subreddit", Value: jsonRef(VarSubreddits)},
			{Key: "searchTerm", Value: jsonRef(VarKeywords)},
		}},
	})
	n.Credentials = schema.Credentials{
		"redditOAuth2Api": {ID: RedditCredentialID, Name: RedditCredentialName},
	}
	return n
}

func filterNode() schema.Node {
	return newNode(schema.KindTransform, NodeFilter, slotFilter, schema.Params{
		{Key: "jsCode", Value: FilterCode(NodeConfig, VarMaxDaysOld)},
	})
}

// FilterCode returns the JavaScript run by the date filter node. It reads the
// staleness threshold from variable on node configNode and keeps items whose
// created epoch seconds fall strictly after now minus that many days.
func FilterCode(configNode, variable string) string {
	return fmt.Sprintf(filterCodeTemplate, configNode, variable)
}

func duplicatesNode() schema.Node {
	n := newNode(schema.KindSpreadsheetLookup, NodeDuplicates, slotDuplicates, schema.Params{
		{Key: "operation", Value: "lookup"},
		{Key: "sheetId", Value: sheetID()},
		{Key: "range", Value: sheetRange},
		{Key: "lookupColumn", Value: "url"},
		{Key: "lookupValue", Value: jsonRef("url")},
	})
	n.Credentials = sheetsCredentials()
	return n
}

func saveNode() schema.Node {
	n := newNode(schema.KindSpreadsheetAppend, NodeSave, slotSave, schema.Params{
		{Key: "operation", Value: "append"},
		{Key: "sheetId", Value: sheetID()},
		{Key: "range", Value: sheetRange},
		{Key: "columns", Value: schema.Params{
			{Key: "mappingMode", Value: "defineBelow"},
			{Key: "value", Value: schema.Params{
				{Key: "title", Value: jsonRef("title")},
				{Key: "url", Value: jsonRef("url")},
				{Key: "author", Value: jsonRef("author")},
				{Key: "content", Value: jsonRef("selftext")},
				{Key: "date", Value: "={{ new Date($json.created * 1000).toISOString() }}"},
			}},
		}},
		{Key: "options", Value: schema.Params{}},
	})
	n.Credentials = sheetsCredentials()
	return n
}

func sheetID() schema.Params {
	return schema.Params{
		{Key: "mode", Value: "fromUrl"},
		{Key: "value", Value: SheetURLPlaceholder},
	}
}

func sheetsCredentials() schema.Credentials {
	return schema.Credentials{
		"googleSheetsOAuth2Api": {ID: SheetsCredentialID, Name: SheetsCredentialName},
	}
}

// jsonRef is an n8n expression reading field from the incoming item.
func jsonRef(field string) string {
	return "={{ $json." + field + " }}"
}
