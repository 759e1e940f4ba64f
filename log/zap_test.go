package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestZapRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZap(WarningLevel, &buf)

	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info entry should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Fatalf("expected warn entry, got %q", out)
	}
}

func TestZapWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZap(DebugLevel, &buf).With("path", "a.ser", "count", 3)
	logger.Debugf("saved")

	out := buf.String()
	if !strings.Contains(out, `"path": "a.ser"`) || !strings.Contains(out, `"count": 3`) {
		t.Fatalf("expected structured fields, got %q", out)
	}
	if logger.LogLevel() != DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.LogLevel())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"":        InfoLevel,
		"WARNING": WarningLevel,
		"error":   ErrorLevel,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
