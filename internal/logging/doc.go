// Package logging assembles the slog loggers used by playsync commands.
//
// It owns the console and JSON handlers, fans output out to an optional
// per-run JSON log file, applies per-component level overrides, and exposes
// helpers that tag records with the run ID and scenario carried on the
// context. Components receive a *slog.Logger explicitly; NewNop serves tests
// and wiring code that has nothing to log to.
package logging
