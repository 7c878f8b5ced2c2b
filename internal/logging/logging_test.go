package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestGetLoggerAddsComponentAttribute(t *testing.T) {
	var buf bytes.Buffer
	loggerMu.Lock()
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, nil))
	loggerMu.Unlock()

	log := GetLogger("memory")
	log.Info("created", "id", "abc")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["component"] != "memory" {
		t.Errorf("expected component=memory, got %v", entry["component"])
	}
	if entry["id"] != "abc" {
		t.Errorf("expected id=abc, got %v", entry["id"])
	}
}

func TestInitJSONFormat(t *testing.T) {
	Init(Config{Level: "debug", Format: "json", Output: "stdout"})
	// Init swaps the package-level logger; nothing to assert on output
	// destination directly, but it must not panic and Info must still work.
	GetLogger("test").Info("hello")
}

func TestWithAddsAttributesToChildLogger(t *testing.T) {
	var buf bytes.Buffer
	loggerMu.Lock()
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, nil))
	loggerMu.Unlock()

	log := GetLogger("memory").With("request_id", "r1")
	log.Info("done")

	if !strings.Contains(buf.String(), "r1") {
		t.Errorf("expected the child logger's extra attribute in output, got %q", buf.String())
	}
}
