package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lasikiewicz/news-aggregator/internal/config"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" info ":  slog.LevelInfo,
		"":        slog.LevelDebug,
		"verbose": slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONFormatAndFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "agg.log")
	var console bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1}, &console)
	logger.Debug("hidden")
	logger.Info("article stored", "key", "k-1")

	if strings.Contains(console.String(), "hidden") {
		t.Fatalf("debug line should be filtered at info level")
	}
	if !strings.Contains(console.String(), `"key":"k-1"`) {
		t.Fatalf("expected json output, got %s", console.String())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "article stored") {
		t.Fatalf("expected log file to contain the line, got %s", raw)
	}
}
