package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rendis/scrapegen/pkg/schema"
)

const (
	configSchemaURL   = "https://scrapegen.dev/schemas/config.json"
	documentSchemaURL = "https://scrapegen.dev/schemas/n8n-workflow.json"
)

const configSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://scrapegen.dev/schemas/config.json",
  "type": "object",
  "required": ["subreddits", "keywords", "days_old", "schedule_hours", "check_duplicates"],
  "properties": {
    "subreddits": { "type": "string" },
    "keywords": { "type": "string" },
    "days_old": { "type": "integer", "minimum": 1, "maximum": 30 },
    "schedule_hours": { "type": "integer", "enum": [1, 6, 12, 24] },
    "check_duplicates": { "type": "boolean" }
  },
  "additionalProperties": false
}`

const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://scrapegen.dev/schemas/n8n-workflow.json",
  "type": "object",
  "required": ["name", "nodes", "connections"],
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "nodes": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/node" }
    },
    "connections": {
      "type": "object",
      "additionalProperties": { "$ref": "#/$defs/outputs" }
    }
  },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["parameters", "id", "name", "type", "typeVersion", "position"],
      "properties": {
        "parameters": { "type": "object" },
        "id": { "type": "string", "minLength": 1 },
        "name": { "type": "string", "minLength": 1 },
        "type": { "type": "string", "pattern": "^n8n-nodes-base\\.[A-Za-z0-9]+$" },
        "typeVersion": { "type": "number", "exclusiveMinimum": 0 },
        "position": {
          "type": "array",
          "items": { "type": "integer" },
          "minItems": 2,
          "maxItems": 2
        },
        "credentials": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "required": ["id", "name"],
            "properties": {
              "id": { "type": "string" },
              "name": { "type": "string" }
            }
          }
        }
      }
    },
    "outputs": {
      "type": "object",
      "required": ["main"],
      "properties": {
        "main": {
          "type": "array",
          "items": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["node", "type", "index"],
              "properties": {
                "node": { "type": "string", "minLength": 1 },
                "type": { "type": "string" },
                "index": { "type": "integer", "minimum": 0 }
              }
            }
          }
        }
      }
    }
  }
}`

var printer = message.NewPrinter(language.English)

// JSONSchemaValidator checks configs and documents against embedded
// JSON Schema Draft 2020-12 schemas. It is safe for concurrent use.
type JSONSchemaValidator struct {
	config   *jsonschema.Schema
	document *jsonschema.Schema
}

// NewJSONSchemaValidator compiles the embedded schemas.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	for url, text := range map[string]string{
		configSchemaURL:   configSchemaJSON,
		documentSchemaURL: documentSchemaJSON,
	} {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", url, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", url, err)
		}
	}

	cfgSchema, err := c.Compile(configSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	docSchema, err := c.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	return &JSONSchemaValidator{config: cfgSchema, document: docSchema}, nil
}

// ValidateConfig checks a typed config. Every key is present after
// encoding, so only value constraints can fail.
func (v *JSONSchemaValidator) ValidateConfig(cfg schema.ScraperConfig) *schema.ValidationResult {
	return v.validateValue(v.config, cfg)
}

// ValidateConfigJSON checks raw config JSON, including missing and unknown
// keys.
func (v *JSONSchemaValidator) ValidateConfigJSON(data []byte) *schema.ValidationResult {
	return v.validateRaw(v.config, data)
}

// ValidateDocument checks the shape of a generated n8n document.
func (v *JSONSchemaValidator) ValidateDocument(w *schema.Workflow) *schema.ValidationResult {
	if w == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "workflow document is nil")
		return r
	}
	return v.validateValue(v.document, w)
}

// ValidateDocumentJSON checks the shape of raw document JSON.
func (v *JSONSchemaValidator) ValidateDocumentJSON(data []byte) *schema.ValidationResult {
	return v.validateRaw(v.document, data)
}

func (v *JSONSchemaValidator) validateValue(s *jsonschema.Schema, value any) *schema.ValidationResult {
	data, err := json.Marshal(value)
	if err != nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeDecode, fmt.Sprintf("serialize value: %s", err))
		return r
	}
	return v.validateRaw(s, data)
}

func (v *JSONSchemaValidator) validateRaw(s *jsonschema.Schema, data []byte) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	// UnmarshalJSON keeps numbers as json.Number, which the validator needs.
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		result.AddError("/", schema.ErrCodeDecode, fmt.Sprintf("invalid JSON: %s", err))
		return result
	}
	if err := s.Validate(doc); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			result.AddError("/", schema.ErrCodeValidation, err.Error())
			return result
		}
		for _, issue := range collectViolations(verr) {
			result.AddError(issue.path, schema.ErrCodeValidation, issue.message)
		}
	}
	return result
}

type violation struct {
	path    string
	message string
}

// collectViolations walks a ValidationError tree down to its leaves.
// Paths use the config key or document pointer without the leading slash,
// "/" for the root.
func collectViolations(verr *jsonschema.ValidationError) []violation {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = strings.Join(verr.InstanceLocation, "/")
		}
		return []violation{{path: loc, message: verr.ErrorKind.LocalizedString(printer)}}
	}

	var out []violation
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}
