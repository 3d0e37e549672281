package suggest

import (
	"context"
	"net/http"

	"github.com/rendis/scrapegen/pkg/schema"
)

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
)

// OpenAI calls a chat completions endpoint.
type OpenAI struct {
	model    string
	endpoint string
	apiKey   string
	hc       *http.Client
}

func newOpenAI(cfg ProviderConfig, hc *http.Client) *OpenAI {
	o := &OpenAI{model: cfg.Model, endpoint: cfg.Endpoint, apiKey: cfg.APIKey, hc: hc}
	if o.model == "" {
		o.model = defaultOpenAIModel
	}
	if o.endpoint == "" {
		o.endpoint = defaultOpenAIEndpoint
	}
	return o
}

func (o *OpenAI) Name() string { return ProviderOpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if o.apiKey == "" {
		return "", errMissingKey
	}
	body := map[string]any{
		"model":       o.model,
		"messages":    []chatMessage{{Role: "user", Content: req.Prompt}},
		"temperature": 0.7,
	}
	var resp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, o.hc, o.endpoint, map[string]string{"Authorization": "Bearer " + o.apiKey}, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", schema.NewError(schema.ErrCodeProvider, "openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
