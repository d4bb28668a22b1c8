package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"playsync/internal/config"
	"playsync/internal/logging"
)

func TestConsoleLoggerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.NewComponentLogger(logger, "reconcile").Info("track merged",
		logging.String("url", "file:///Music/O'Brien/a b.mp3"),
		logging.Uint32("playcount", 5),
	)

	line := buf.String()
	for _, want := range []string{" INFO reconcile: track merged", `url="file:///Music/O'Brien/a b.mp3"`, "playcount=5"} {
		if !strings.Contains(line, want) {
			t.Fatalf("console line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no ANSI codes without color, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller at info level, got %q", line)
	}
}

func TestConsoleLoggerColorsLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf, Color: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Warn("careful")
	if !strings.Contains(buf.String(), "\x1b[33mWARN\x1b[0m") {
		t.Fatalf("expected yellow WARN label, got %q", buf.String())
	}
}

func TestDefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestJSONLoggerKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if record["msg"] != "json message" || record["level"] != "info" || record["k"] != "v" {
		t.Fatalf("unexpected record %#v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %#v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestComponentOverrides(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{
		Level:           "warn",
		Writer:          &buf,
		ComponentLevels: map[string]string{"matching": "debug"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.NewComponentLogger(logger, "catalog").Info("catalog info")
	logging.NewComponentLogger(logger, "matching").Debug("matching debug")

	out := buf.String()
	if strings.Contains(out, "catalog info") {
		t.Fatalf("catalog info should be filtered at warn, got %q", out)
	}
	if !strings.Contains(out, "matching: matching debug") {
		t.Fatalf("matching debug should pass override, got %q", out)
	}
}

func TestWithLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	quiet := logging.WithLevelOverride(logger, slog.LevelError)
	quiet.Warn("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected warn to be suppressed, got %q", buf.String())
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := logging.ContextWithRun(context.Background(), "run-123", "itunes")
	logging.WithContext(ctx, logger).Info("contextual log")

	out := buf.String()
	if !strings.Contains(out, "run_id=run-123") || !strings.Contains(out, "scenario=itunes") {
		t.Fatalf("expected run fields, got %q", out)
	}
	if got := logging.ContextFields(context.Background()); len(got) != 0 {
		t.Fatalf("expected no fields on bare context, got %v", got)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.WarnWithContext(logger, "no match", "track_unmatched",
		logging.String(logging.FieldImpact, "play history not imported"))

	out := buf.String()
	for _, want := range []string{"event_type=track_unmatched", "error_hint=", `impact="play history not imported"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestLevelForVerbosity(t *testing.T) {
	cases := []struct {
		configured string
		verbosity  int
		want       string
	}{
		{"", 0, "warn"},
		{"error", 0, "error"},
		{"error", 1, "info"},
		{"warn", 2, "debug"},
		{"warn", 5, "debug"},
	}
	for _, tc := range cases {
		if got := logging.LevelForVerbosity(tc.configured, tc.verbosity); got != tc.want {
			t.Fatalf("LevelForVerbosity(%q, %d) = %q, want %q", tc.configured, tc.verbosity, got, tc.want)
		}
	}
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()
	cfg.Logging.RetentionDays = 1

	stale := filepath.Join(cfg.Logging.Dir, "playsync-20000101T000000Z-deadbeef.jsonl")
	if err := os.WriteFile(stale, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write stale log: %v", err)
	}
	old := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	logger, closeLog, err := logging.NewFromConfig(&cfg, io.Discard, 0, "0123456789abcdef")
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("run started")
	if err := closeLog(); err != nil {
		t.Fatalf("close run log: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run log to be pruned, stat err = %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(cfg.Logging.Dir, logging.RunLogPattern))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one run log, got %v (%v)", matches, err)
	}
	if !strings.Contains(filepath.Base(matches[0]), "-01234567.jsonl") {
		t.Fatalf("unexpected run log name %q", matches[0])
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"run started"`) {
		t.Fatalf("expected info record in run log, got %q", content)
	}
}

func TestNewFromConfigWithoutDir(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer
	logger, closeLog, err := logging.NewFromConfig(&cfg, &buf, 2, "run")
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Debug("debug visible")
	if !strings.Contains(buf.String(), "debug visible") {
		t.Fatalf("expected debug record at -vv, got %q", buf.String())
	}
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
