package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	surfaceKey
	providerKey
)

// Attribute names written by CorrelationHandler and LogWith.
const (
	AttrRequestID = "request_id"
	AttrSurface   = "surface"
	AttrProvider  = "provider"
)

// Surfaces that originate requests.
const (
	SurfaceCLI   = "cli"
	SurfacePanel = "panel"
	SurfaceTUI   = "tui"
	SurfaceMCP   = "mcp"
)

var correlationKeys = []struct {
	key  ctxKey
	attr string
}{
	{requestIDKey, AttrRequestID},
	{surfaceKey, AttrSurface},
	{providerKey, AttrProvider},
}

// WithRequestID returns a context with the request ID set.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithSurface returns a context tagged with the originating surface.
func WithSurface(ctx context.Context, surface string) context.Context {
	return context.WithValue(ctx, surfaceKey, surface)
}

// WithProvider returns a context tagged with the suggestion provider in use.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerKey, provider)
}

// RequestID extracts the request ID from the context, or "" if absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// Surface extracts the surface from the context, or "" if absent.
func Surface(ctx context.Context) string {
	v, _ := ctx.Value(surfaceKey).(string)
	return v
}

// Provider extracts the provider from the context, or "" if absent.
func Provider(ctx context.Context) string {
	v, _ := ctx.Value(providerKey).(string)
	return v
}

// NewRequest tags ctx with a fresh request ID and the given surface. An ID
// already on ctx is kept.
func NewRequest(ctx context.Context, surface string) context.Context {
	if RequestID(ctx) == "" {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	return WithSurface(ctx, surface)
}

// LogWith returns a logger enriched with correlation IDs from the context.
// Only non-empty values are added as attributes.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	for _, k := range correlationKeys {
		if v, _ := ctx.Value(k.key).(string); v != "" {
			logger = logger.With(slog.String(k.attr, v))
		}
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, injecting correlation IDs from
// the context into every record. Callers log with logger.InfoContext(ctx, ...).
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, k := range correlationKeys {
		if v, _ := ctx.Value(k.key).(string); v != "" {
			r.AddAttrs(slog.String(k.attr, v))
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds the process logger: a text handler on w behind the
// correlation handler. level is shared so it can be changed at runtime.
func New(w io.Writer, level *slog.LevelVar) *slog.Logger {
	return slog.New(NewCorrelationHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
