package logging

import (
	"context"
	"log/slog"
)

// componentLevelHandler enforces a minimum level that depends on the
// component attribute attached through WithAttrs. The wrapped handler must be
// configured with the most verbose level any component needs.
type componentLevelHandler struct {
	next      slog.Handler
	overrides map[string]slog.Level
	level     slog.Level
}

func newComponentLevelHandler(next slog.Handler, base slog.Level, overrides map[string]slog.Level) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	if len(overrides) == 0 {
		return next
	}
	return &componentLevelHandler{next: next, overrides: overrides, level: base}
}

func (h *componentLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.level {
		return false
	}
	return h.next.Enabled(ctx, level)
}

func (h *componentLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.level {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *componentLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	level := h.level
	for _, attr := range attrs {
		if attr.Key != FieldComponent {
			continue
		}
		if override, ok := h.overrides[attrString(attr.Value)]; ok {
			level = override
		}
	}
	return &componentLevelHandler{next: h.next.WithAttrs(attrs), overrides: h.overrides, level: level}
}

func (h *componentLevelHandler) WithGroup(name string) slog.Handler {
	return &componentLevelHandler{next: h.next.WithGroup(name), overrides: h.overrides, level: h.level}
}

// CloneWithLevel replaces the effective minimum level.
func (h *componentLevelHandler) CloneWithLevel(level slog.Level) slog.Handler {
	return &componentLevelHandler{next: h.next, overrides: h.overrides, level: level}
}

// WithLevelOverride returns a logger that enforces the provided minimum level
// while preserving existing attributes and handler wiring.
func WithLevelOverride(logger *slog.Logger, level slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	if cloner, ok := logger.Handler().(interface{ CloneWithLevel(slog.Level) slog.Handler }); ok {
		return slog.New(cloner.CloneWithLevel(level))
	}
	return slog.New(&componentLevelHandler{next: logger.Handler(), level: level})
}
