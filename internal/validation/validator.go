package validation

import (
	"context"

	"github.com/rendis/scrapegen/pkg/schema"
)

// Validator checks user input before generation and documents after it.
type Validator interface {
	ValidateConfig(cfg schema.ScraperConfig) *schema.ValidationResult
	ValidateDocument(ctx context.Context, w *schema.Workflow, opts DocumentOptions) *schema.ValidationResult
}

// DocumentOptions tunes document validation.
type DocumentOptions struct {
	// Config, when set, enables the checks that compare the document with
	// the config it was generated from.
	Config *schema.ScraperConfig
	// Assertions are extra CEL expressions that must evaluate to true.
	Assertions []string
}
