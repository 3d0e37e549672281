// Package suggest asks a generative text model for search keywords and
// configuration tips. Every failure degrades to a fixed fallback answer;
// callers never see an error.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rendis/scrapegen/internal/logging"
	"github.com/rendis/scrapegen/pkg/schema"
)

// MaxKeywords caps the keyword suggestions returned per call.
const MaxKeywords = 10

// FallbackTip is returned when tips cannot be generated.
const FallbackTip = "Tip: Ensure your keywords are specific enough to avoid spam."

var fallbackKeywords = []string{"looking for", "recommend", "help with", "alternative to", "best tool for"}

// FallbackKeywords returns the keywords used when suggestion fails.
func FallbackKeywords() []string {
	out := make([]string, len(fallbackKeywords))
	copy(out, fallbackKeywords)
	return out
}

// TipsRequest is the part of a config the tips prompt looks at.
type TipsRequest struct {
	Subreddits string `json:"subreddits"`
	Keywords   string `json:"keywords"`
}

// Suggester produces keyword and tip suggestions. Implementations never
// fail; they fall back to fixed answers.
type Suggester interface {
	SuggestKeywords(ctx context.Context, targetBoards string) []string
	SuggestOptimizationTips(ctx context.Context, req TipsRequest) string
}

// Client is the Suggester backed by a Provider. Calls are independent: no
// retry, no caching and no coalescing of concurrent requests.
type Client struct {
	provider Provider
	logger   *slog.Logger
}

// NewClient wraps provider. A nil logger discards failure logs.
func NewClient(provider Provider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{provider: provider, logger: logger.With(slog.String("component", "suggest"))}
}

// Provider returns the name of the backing provider.
func (c *Client) Provider() string {
	return c.provider.Name()
}

// KeywordsPrompt is the prompt sent for keyword suggestions.
func KeywordsPrompt(targetBoards string) string {
	return fmt.Sprintf(`I am building a Reddit scraper for the following subreddits: %s.
Suggest 10 high-intent keywords or phrases that would indicate someone is looking for a solution, tool, or help (lead generation context).
Return ONLY a JSON array of strings.`, targetBoards)
}

// TipsPrompt is the prompt sent for optimization tips.
func TipsPrompt(req TipsRequest) string {
	return fmt.Sprintf(`Analyze this reddit scraper config: Subreddits: %s, Keywords: %s.
Provide 3 brief bullet points on how to improve the search quality to get better leads.`, req.Subreddits, req.Keywords)
}

// SuggestKeywords returns up to MaxKeywords keyword phrases for the given
// comma-delimited boards, or FallbackKeywords on any failure.
func (c *Client) SuggestKeywords(ctx context.Context, targetBoards string) []string {
	ctx = c.tag(ctx)
	text, err := c.provider.Generate(ctx, Request{Prompt: KeywordsPrompt(targetBoards), StringArray: true})
	if err == nil {
		var keywords []string
		if keywords, err = ParseKeywords(text); err == nil {
			return keywords
		}
	}
	c.logger.WarnContext(ctx, "keyword suggestion failed, using fallback", slog.String("error", err.Error()))
	return FallbackKeywords()
}

// SuggestOptimizationTips returns free-form improvement tips, or
// FallbackTip on any failure.
func (c *Client) SuggestOptimizationTips(ctx context.Context, req TipsRequest) string {
	ctx = c.tag(ctx)
	text, err := c.provider.Generate(ctx, Request{Prompt: TipsPrompt(req)})
	if err == nil {
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
		err = schema.NewError(schema.ErrCodeProvider, "empty tips response")
	}
	c.logger.WarnContext(ctx, "tips suggestion failed, using fallback", slog.String("error", err.Error()))
	return FallbackTip
}

func (c *Client) tag(ctx context.Context) context.Context {
	if logging.RequestID(ctx) == "" {
		ctx = logging.NewRequest(ctx, logging.Surface(ctx))
	}
	return logging.WithProvider(ctx, c.provider.Name())
}

// ParseKeywords decodes a model answer that should be a JSON array of
// strings. Markdown code fences are tolerated. Entries are trimmed, empty
// ones dropped and the list capped at MaxKeywords. An answer with no usable
// entry is an error.
func ParseKeywords(text string) ([]string, error) {
	text = stripFences(text)
	if text == "" {
		return nil, schema.NewError(schema.ErrCodeProvider, "empty keyword response")
	}
	var raw []string
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, schema.NewError(schema.ErrCodeProvider, "keyword response is not a JSON array of strings").WithCause(err)
	}
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
		if len(out) == MaxKeywords {
			break
		}
	}
	if len(out) == 0 {
		return nil, schema.NewError(schema.ErrCodeProvider, "keyword response has no entries")
	}
	return out, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:] // drop the language tag line
	} else {
		text = ""
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

var _ Suggester = (*Client)(nil)
