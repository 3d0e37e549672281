package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rendis/scrapegen/pkg/schema"
)

// Provider names.
const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
	ProviderOffline = "offline"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// Request is one text generation call.
type Request struct {
	Prompt string
	// StringArray asks the provider to answer with a JSON array of strings
	// when it supports constrained output.
	StringArray bool
}

// Provider generates text from a prompt. Implementations hold no
// per-request state and are safe for concurrent use.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// ProviderConfig selects and configures a Provider. Empty fields take the
// provider's defaults.
type ProviderConfig struct {
	Name     string
	Model    string
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	// GenAI is a prebuilt Gemini client. When nil and an API key is set,
	// NewProvider builds one.
	GenAI *genai.Client
}

// NewProvider builds the provider named by cfg.Name. A missing API key is
// not an error here; the provider fails each call instead, which the
// Client turns into the fallback answer.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	switch strings.ToLower(cfg.Name) {
	case "", ProviderGemini:
		g, err := newGemini(cfg, hc)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI:
		return newOpenAI(cfg, hc), nil
	case ProviderOllama:
		return newOllama(cfg, hc), nil
	case ProviderOffline:
		return Offline{}, nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeConfig, "unknown suggestion provider %q", cfg.Name).
			WithField("provider")
	}
}

// Offline never reaches a model, so every suggestion is the fallback.
type Offline struct{}

func (Offline) Name() string { return ProviderOffline }

func (Offline) Generate(context.Context, Request) (string, error) {
	return "", schema.NewError(schema.ErrCodeProvider, "offline provider has no model")
}

var errMissingKey = schema.NewError(schema.ErrCodeProvider, "API key is not set")

const maxErrorBody = 512

// postJSON sends body as JSON and decodes a 2xx response into out.
func postJSON(ctx context.Context, hc *http.Client, url string, headers map[string]string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return schema.NewError(schema.ErrCodeProvider, "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return schema.NewErrorf(schema.ErrCodeProvider, "status %s", resp.Status).
			WithDetails(map[string]any{"body": strings.TrimSpace(string(snippet))})
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return schema.NewError(schema.ErrCodeProvider, "decode response").WithCause(err)
	}
	return nil
}
