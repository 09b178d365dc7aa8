package logging

import (
	"context"
	"log/slog"
)

// SessionProvider returns attributes describing the live UI session, evaluated
// for every record.
type SessionProvider func() []slog.Attr

type sessionHandler struct {
	inner    slog.Handler
	provider SessionProvider
}

func newSessionHandler(inner slog.Handler, provider SessionProvider) *sessionHandler {
	return &sessionHandler{inner: inner, provider: provider}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *sessionHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.provider()...)
	return h.inner.Handle(ctx, r)
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &sessionHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
