package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one invocation of a write scenario.
	FieldRunID = "run_id"
	// FieldScenario names the reconciliation scenario (itunes, listens, ...).
	FieldScenario = "scenario"
	// FieldEventType is a stable machine-readable name for the event.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldURL is the track location a record refers to.
	FieldURL = "url"
	// FieldStrategy names the matching strategy that resolved a track.
	FieldStrategy = "strategy"
)

type runKey struct{}

type runInfo struct {
	id       string
	scenario string
}

// ContextWithRun attaches the run ID and scenario to ctx.
func ContextWithRun(ctx context.Context, runID, scenario string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runKey{}, runInfo{id: runID, scenario: scenario})
}

// RunFromContext returns the run ID and scenario stored by ContextWithRun.
func RunFromContext(ctx context.Context) (runID, scenario string, ok bool) {
	if ctx == nil {
		return "", "", false
	}
	info, ok := ctx.Value(runKey{}).(runInfo)
	if !ok {
		return "", "", false
	}
	return info.id, info.scenario, true
}

// ContextFields extracts standardized slog attributes from ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	runID, scenario, ok := RunFromContext(ctx)
	if !ok {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if runID != "" {
		fields = append(fields, slog.String(FieldRunID, runID))
	}
	if scenario != "" {
		fields = append(fields, slog.String(FieldScenario, scenario))
	}
	return fields
}

// WithContext returns a logger augmented with the fields carried on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, field := range fields {
		args[i] = field
	}
	return logger.With(args...)
}
