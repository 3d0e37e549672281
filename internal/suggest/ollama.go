package suggest

import (
	"context"
	"net/http"
)

const (
	defaultOllamaModel    = "llama3.1"
	defaultOllamaEndpoint = "http://localhost:11434/api/generate"
)

// Ollama calls a local Ollama server. No API key is needed.
type Ollama struct {
	model    string
	endpoint string
	hc       *http.Client
}

func newOllama(cfg ProviderConfig, hc *http.Client) *Ollama {
	o := &Ollama{model: cfg.Model, endpoint: cfg.Endpoint, hc: hc}
	if o.model == "" {
		o.model = defaultOllamaModel
	}
	if o.endpoint == "" {
		o.endpoint = defaultOllamaEndpoint
	}
	return o
}

func (o *Ollama) Name() string { return ProviderOllama }

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	body := map[string]any{
		"model":  o.model,
		"prompt": req.Prompt,
		"stream": false,
	}
	var resp struct {
		Response string `json:"response"`
	}
	if err := postJSON(ctx, o.hc, o.endpoint, nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
