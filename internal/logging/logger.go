package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"playsync/internal/config"
)

// RunLogPattern matches the per-run JSON log files written to logging.dir.
const RunLogPattern = "playsync-*.jsonl"

// Options describes logger construction parameters.
type Options struct {
	Level           string
	Format          string
	Writer          io.Writer
	Color           bool
	AddSource       bool
	ComponentLevels map[string]string
}

// New constructs a slog logger writing to opts.Writer (stderr by default).
func New(opts Options) (*slog.Logger, error) {
	handler, err := newHandler(opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

func newHandler(opts Options) (slog.Handler, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := parseLevel(opts.Level)

	overrides := make(map[string]slog.Level, len(opts.ComponentLevels))
	floor := level
	for component, value := range opts.ComponentLevels {
		lvl := parseLevel(value)
		overrides[strings.ToLower(strings.TrimSpace(component))] = lvl
		if lvl < floor {
			floor = lvl
		}
	}

	addSource := opts.AddSource || level <= slog.LevelDebug

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		handler = newJSONHandler(w, floor, addSource)
	case "console", "":
		handler = newPrettyHandler(w, floor, addSource, opts.Color)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	return newComponentLevelHandler(handler, level, overrides), nil
}

// NewFromConfig builds the command logger writing to w (stderr when nil).
// verbosity raises the configured level (1 info, 2 or more debug). When
// logging.dir is set and runID is not empty, records are also written to a
// JSON file for the run; the returned function closes it.
func NewFromConfig(cfg *config.Config, w io.Writer, verbosity int, runID string) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	if w == nil {
		w = os.Stderr
	}
	if cfg == nil {
		logger, err := New(Options{Level: LevelForVerbosity("", verbosity), Writer: w, Color: ColorEnabled(w)})
		return logger, noop, err
	}

	level := LevelForVerbosity(cfg.Logging.Level, verbosity)
	console, err := newHandler(Options{
		Level:           level,
		Format:          cfg.Logging.Format,
		Writer:          w,
		Color:           cfg.Logging.Format != "json" && ColorEnabled(w),
		ComponentLevels: cfg.Logging.ComponentOverrides,
	})
	if err != nil {
		return nil, noop, err
	}
	if cfg.Logging.Dir == "" || runID == "" {
		return slog.New(console), noop, nil
	}

	if err := os.MkdirAll(cfg.Logging.Dir, 0o755); err != nil {
		return nil, noop, fmt.Errorf("ensure log directory: %w", err)
	}
	path := RunLogPath(cfg.Logging.Dir, runID, time.Now())
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, noop, fmt.Errorf("open run log %s: %w", path, err)
	}
	fileLevel := min(parseLevel(level), slog.LevelInfo)
	logger := slog.New(TeeHandler(console, newJSONHandler(file, fileLevel, false)))

	PruneRunLogs(logger, cfg.Logging.Dir, cfg.Logging.RetentionDays, path, time.Now())
	return logger, file.Close, nil
}

// RunLogPath names the JSON log file for one run.
func RunLogPath(dir, runID string, started time.Time) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("playsync-%s-%s.jsonl", started.UTC().Format("20060102T150405Z"), short)
	return filepath.Join(dir, name)
}

// LevelForVerbosity maps the repeatable -v flag onto a level name. Without
// the flag the configured level is used.
func LevelForVerbosity(configured string, verbosity int) string {
	switch {
	case verbosity >= 2:
		return "debug"
	case verbosity == 1:
		return "info"
	case strings.TrimSpace(configured) == "":
		return "warn"
	default:
		return configured
	}
}

// ColorEnabled reports whether w is a terminal that should receive ANSI
// colors. NO_COLOR disables them.
func ColorEnabled(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
