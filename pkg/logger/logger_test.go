package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestInitJSON(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	if err := Init(Config{Level: LevelDebug, Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	LogCodeGen("prog.apl", 120, 16)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("record is not JSON: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "Code generation complete" || rec["file"] != "prog.apl" {
		t.Errorf("record = %v", rec)
	}
	if rec["code_bytes"] != float64(120) {
		t.Errorf("code_bytes = %v", rec["code_bytes"])
	}
}

func TestInitLevelFilter(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	if err := Init(Config{Level: LevelWarn, Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	LogFileProcessing("skipped.apl")
	LogError("parse", "bad.apl", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "skipped.apl") {
		t.Errorf("info record passed a warn filter:\n%s", out)
	}
	if !strings.Contains(out, "phase=parse") || !strings.Contains(out, "error=boom") {
		t.Errorf("error record missing fields:\n%s", out)
	}
}

func TestInitUnknownFormat(t *testing.T) {
	if err := Init(Config{Format: "xml"}); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestDiscard(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger accepts records")
	}
}
