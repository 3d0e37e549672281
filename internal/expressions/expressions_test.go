package expressions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/scrapegen/pkg/schema"
)

func sampleDoc() map[string]any {
	return map[string]any{
		"name": "Reddit Lead Scraper",
		"nodes": []any{
			map[string]any{"name": "Schedule Trigger", "type": "n8n-nodes-base.scheduleTrigger"},
			map[string]any{"name": "Save to Sheets", "type": "n8n-nodes-base.googleSheets"},
		},
	}
}

func TestSet(t *testing.T) {
	s, err := NewSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"cel", "expr", "jq"}, s.Names())

	e, err := s.Get("jq")
	require.NoError(t, err)
	assert.Equal(t, "jq", e.Name())

	_, err = s.Get("lua")
	assert.Error(t, err)
}

// --- CEL ---

func TestCEL_DocAssertions(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	data := map[string]any{
		VarDoc:    sampleDoc(),
		VarConfig: map[string]any{"check_duplicates": false},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`doc.name == "Reddit Lead Scraper"`, true},
		{`size(doc.nodes) == 2`, true},
		{`doc.nodes.exists(n, n.name == "Save to Sheets")`, true},
		{`config.check_duplicates`, false},
		{`!doc.nodes.exists(n, n.name == "Check Duplicates")`, true},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := EvaluateBool(context.Background(), e, tc.expr, data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCEL_MissingVariablesDefaultToEmpty(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	out, err := e.Evaluate(context.Background(), `size(doc) == 0`, nil)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_CompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	err = e.Check(`doc.name ==`)
	require.Error(t, err)
	var sErr *schema.Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, schema.ErrCodeExpression, sErr.Code)

	_, err = e.Evaluate(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestCEL_NonBool(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	_, err = EvaluateBool(context.Background(), e, `doc.name`, map[string]any{VarDoc: sampleDoc()})
	assert.ErrorContains(t, err, "want bool")
}

// --- jq ---

func TestJQ_Query(t *testing.T) {
	e := NewGoJQEngine()
	out, err := e.Evaluate(context.Background(), `[.nodes[].name]`, sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, []any{"Schedule Trigger", "Save to Sheets"}, out)
}

func TestJQ_MultipleAndNoOutputs(t *testing.T) {
	e := NewGoJQEngine()
	out, err := e.Evaluate(context.Background(), `.nodes[].name`, sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, []any{"Schedule Trigger", "Save to Sheets"}, out)

	out, err = e.Evaluate(context.Background(), `empty`, sampleDoc())
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestJQ_Errors(t *testing.T) {
	e := NewGoJQEngine()
	_, err := e.Evaluate(context.Background(), `.[`, sampleDoc())
	assert.ErrorContains(t, err, "jq parse error")

	_, err = e.Evaluate(context.Background(), `error("boom")`, sampleDoc())
	assert.ErrorContains(t, err, "boom")
}

func TestJQ_NoEnvAccess(t *testing.T) {
	t.Setenv("SCRAPEGEN_SECRET", "hidden")
	e := NewGoJQEngine()
	out, err := e.Evaluate(context.Background(), `$ENV.SCRAPEGEN_SECRET`, sampleDoc())
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestJQ_QueryWorkflow(t *testing.T) {
	w := &schema.Workflow{
		Name:  "x",
		Nodes: []schema.Node{{Name: "A", Parameters: schema.Params{{Key: "limit", Value: 50}}, Position: []int{250, 300}}},
	}
	out, err := NewGoJQEngine().Query(context.Background(), `.nodes[0].parameters.limit`, w)
	require.NoError(t, err)
	assert.Equal(t, float64(50), out)
}

// --- expr ---

func TestExpr_Rules(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{
		"targets":  []any{"saas", "r/startups"},
		"keywords": []any{"a", "b"},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`len(targets) == 0`, false},
		{`any(targets, {# startsWith "r/"})`, true},
		{`len(keywords) > 10`, false},
		{`missing == nil`, true},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := EvaluateBool(context.Background(), e, tc.expr, data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpr_CompileError(t *testing.T) {
	_, err := NewExprEngine().Evaluate(context.Background(), `len(`, nil)
	assert.ErrorContains(t, err, "expr compile error")
}

func TestCache_CompilesOnce(t *testing.T) {
	e := NewExprEngine()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Evaluate(context.Background(), `1 + 1 == 2`, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, e.cache.len())
}
