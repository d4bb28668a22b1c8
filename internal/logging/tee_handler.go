package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler sends each record to every child that accepts its level. The
// console and the per-run JSON file are its usual children.
type teeHandler struct {
	children []slog.Handler
}

// TeeHandler combines handlers. Nil handlers are dropped; a single handler
// is returned as is.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	children := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			children = append(children, h)
		}
	}
	switch len(children) {
	case 0:
		return NoopHandler{}
	case 1:
		return children[0]
	}
	return &teeHandler{children: children}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range h.children {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every accepting child and joins their errors.
func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, child := range h.children {
		if !child.Enabled(ctx, record.Level) {
			continue
		}
		if err := child.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(child slog.Handler) slog.Handler { return child.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.each(func(child slog.Handler) slog.Handler { return child.WithGroup(name) })
}

func (h *teeHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.children))
	for i, child := range h.children {
		next[i] = fn(child)
	}
	return &teeHandler{children: next}
}
