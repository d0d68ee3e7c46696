package app

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// sentryHandler forwards error records carrying an "error" attribute to Sentry.
type sentryHandler struct {
	slog.Handler
	hub   *sentry.Hub
	attrs []slog.Attr
}

// WithSentry wraps handler so logged errors are also captured by hub.
func WithSentry(handler slog.Handler, hub *sentry.Hub) slog.Handler {
	if hub == nil {
		return handler
	}
	return &sentryHandler{Handler: handler, hub: hub}
}

func (h *sentryHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelError {
		h.capture(record)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *sentryHandler) capture(record slog.Record) {
	var captured error
	extra := map[string]interface{}{}

	visit := func(a slog.Attr) bool {
		if err, ok := a.Value.Any().(error); ok && a.Key == "error" {
			captured = err
			return true
		}
		extra[a.Key] = a.Value.String()
		return true
	}

	for _, a := range h.attrs {
		visit(a)
	}
	record.Attrs(visit)

	if captured == nil {
		return
	}

	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtra("message", record.Message)
		for k, v := range extra {
			scope.SetExtra(k, v)
		}
		h.hub.CaptureException(captured)
	})
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &sentryHandler{Handler: h.Handler.WithAttrs(attrs), hub: h.hub, attrs: merged}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	return &sentryHandler{Handler: h.Handler.WithGroup(name), hub: h.hub, attrs: h.attrs}
}
