package validation

import (
	"context"
	"encoding/json"

	"github.com/rendis/scrapegen/internal/expressions"
	"github.com/rendis/scrapegen/pkg/schema"
)

// WorkflowValidator runs the validation pipelines.
//
// Configs: structural (JSON Schema) then lint (expr rules, warnings only).
// Documents: structural (JSON Schema), graph (integrity, linearity,
// duplicate check topology) and CEL assertions.
// A failing stage short-circuits the ones after it.
type WorkflowValidator struct {
	jsonSchema *JSONSchemaValidator
	cel        *expressions.CELEngine
	lint       *expressions.ExprEngine
}

// NewWorkflowValidator compiles schemas and builds the expression engines.
func NewWorkflowValidator() (*WorkflowValidator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	celEngine, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &WorkflowValidator{
		jsonSchema: jsv,
		cel:        celEngine,
		lint:       expressions.NewExprEngine(),
	}, nil
}

// ValidateConfig checks a typed config at the input boundary.
func (wv *WorkflowValidator) ValidateConfig(cfg schema.ScraperConfig) *schema.ValidationResult {
	result := wv.jsonSchema.ValidateConfig(cfg)
	if !result.Valid() {
		return result
	}
	result.Merge(lintConfig(context.Background(), wv.lint, cfg))
	return result
}

// ValidateConfigJSON decodes and checks a raw JSON config. The returned
// config is only meaningful when the result is valid.
func (wv *WorkflowValidator) ValidateConfigJSON(data []byte) (schema.ScraperConfig, *schema.ValidationResult) {
	var cfg schema.ScraperConfig
	result := wv.jsonSchema.ValidateConfigJSON(data)
	if !result.Valid() {
		return cfg, result
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		result.AddError("/", schema.ErrCodeDecode, err.Error())
		return cfg, result
	}
	result.Merge(lintConfig(context.Background(), wv.lint, cfg))
	return cfg, result
}

// ValidateDocument checks a workflow document.
func (wv *WorkflowValidator) ValidateDocument(ctx context.Context, w *schema.Workflow, opts DocumentOptions) *schema.ValidationResult {
	result := wv.jsonSchema.ValidateDocument(w)
	if !result.Valid() {
		return result
	}

	result.Merge(validateGraph(w))
	if opts.Config != nil {
		result.Merge(validateDuplicateCheck(w, opts.Config.CheckDuplicates))
	}
	if !result.Valid() {
		return result
	}

	result.Merge(CheckAssertions(ctx, wv.cel, w, opts.Config, opts.Assertions))
	return result
}

// ValidateDocumentJSON parses and checks raw document JSON.
func (wv *WorkflowValidator) ValidateDocumentJSON(ctx context.Context, data []byte, opts DocumentOptions) (*schema.Workflow, *schema.ValidationResult) {
	result := wv.jsonSchema.ValidateDocumentJSON(data)
	if !result.Valid() {
		return nil, result
	}
	w, err := schema.ParseWorkflow(data)
	if err != nil {
		result.AddError("/", schema.ErrCodeDecode, err.Error())
		return nil, result
	}
	result.Merge(wv.ValidateDocument(ctx, w, opts))
	return w, result
}

// CheckConfig returns the config result as an error, nil when valid.
func (wv *WorkflowValidator) CheckConfig(cfg schema.ScraperConfig) error {
	return wv.ValidateConfig(cfg).ToError()
}

var _ Validator = (*WorkflowValidator)(nil)
