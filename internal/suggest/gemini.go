package suggest

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"github.com/rendis/scrapegen/pkg/schema"
)

const defaultGeminiModel = "gemini-2.5-flash"

// keywordSchema constrains keyword answers to a JSON array of strings.
var keywordSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

// Gemini generates through the Gen AI SDK against the Gemini API.
type Gemini struct {
	model  string
	client *genai.Client
}

// NewGeminiClient builds the SDK client a Gemini provider shares across
// calls. cfg.Endpoint replaces the API base URL; the API version stays the
// SDK default.
func NewGeminiClient(ctx context.Context, cfg ProviderConfig, hc *http.Client) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions.BaseURL = cfg.Endpoint
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeConfig, "create gemini client").WithCause(err)
	}
	return client, nil
}

// newGemini uses cfg.GenAI when set. Without an API key no client is built
// and every call fails with errMissingKey.
func newGemini(cfg ProviderConfig, hc *http.Client) (*Gemini, error) {
	g := &Gemini{model: cfg.Model, client: cfg.GenAI}
	if g.model == "" {
		g.model = defaultGeminiModel
	}
	if g.client != nil || cfg.APIKey == "" {
		return g, nil
	}
	client, err := NewGeminiClient(context.Background(), cfg, hc)
	if err != nil {
		return nil, err
	}
	g.client = client
	return g, nil
}

func (g *Gemini) Name() string { return ProviderGemini }

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if g.client == nil {
		return "", errMissingKey
	}
	var config *genai.GenerateContentConfig
	if req.StringArray {
		config = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   keywordSchema,
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", geminiError(err)
	}
	if len(resp.Candidates) == 0 {
		return "", schema.NewError(schema.ErrCodeProvider, "gemini returned no candidates")
	}
	return resp.Text(), nil
}

// geminiError keeps the HTTP status of API failures in the message.
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return schema.NewErrorf(schema.ErrCodeProvider, "gemini returned %d: %s", apiErr.Code, apiErr.Message).WithCause(err)
	}
	return schema.NewErrorf(schema.ErrCodeProvider, "gemini request failed: %v", err).WithCause(err)
}
