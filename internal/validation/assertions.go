package validation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rendis/scrapegen/internal/expressions"
	"github.com/rendis/scrapegen/pkg/schema"
)

// Assertion is a named CEL predicate over doc and config.
type Assertion struct {
	Name string
	Expr string
}

const lookupPredicate = `n.type == "n8n-nodes-base.googleSheets" && has(n.parameters.operation) && n.parameters.operation == "lookup"`

// DocumentAssertions hold for every document the generator emits.
var DocumentAssertions = []Assertion{
	{Name: "trigger_first",
		Expr: `doc.nodes[0].type == "n8n-nodes-base.scheduleTrigger"`},
	{Name: "append_last",
		Expr: `doc.nodes[size(doc.nodes) - 1].type == "n8n-nodes-base.googleSheets" && doc.nodes[size(doc.nodes) - 1].parameters.operation == "append"`},
	{Name: "ids_match_names",
		Expr: `doc.nodes.all(n, n.id == n.name)`},
	{Name: "connections_per_node",
		Expr: `size(doc.connections) == size(doc.nodes) - 1`},
	{Name: "dedup_matches_config",
		Expr: `!has(config.check_duplicates) || config.check_duplicates == doc.nodes.exists(n, ` + lookupPredicate + `)`},
	{Name: "interval_matches_config",
		Expr: `!has(config.schedule_hours) || doc.nodes[0].parameters.rule.interval[0].hours == config.schedule_hours`},
}

// CheckAssertions evaluates the built-in document assertions followed by
// extra. A false result or an evaluation error is reported as an error.
func CheckAssertions(ctx context.Context, engine *expressions.CELEngine, w *schema.Workflow, cfg *schema.ScraperConfig, extra []string) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	doc, err := w.AsMap()
	if err != nil {
		result.AddError("/", schema.ErrCodeDecode, err.Error())
		return result
	}
	data := map[string]any{expressions.VarDoc: doc}
	if cfg != nil {
		m, err := configMap(*cfg)
		if err != nil {
			result.AddError("/", schema.ErrCodeDecode, err.Error())
			return result
		}
		data[expressions.VarConfig] = m
	}

	all := make([]Assertion, 0, len(DocumentAssertions)+len(extra))
	all = append(all, DocumentAssertions...)
	for i, e := range extra {
		all = append(all, Assertion{Name: fmt.Sprintf("assert[%d]", i), Expr: e})
	}

	for _, a := range all {
		ok, err := expressions.EvaluateBool(ctx, engine, a.Expr, data)
		switch {
		case err != nil:
			result.AddError(a.Name, schema.ErrCodeExpression, err.Error())
		case !ok:
			result.AddError(a.Name, schema.ErrCodeAssertion, fmt.Sprintf("assertion failed: %s", a.Expr))
		}
	}
	return result
}

func configMap(cfg schema.ScraperConfig) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return m, nil
}
