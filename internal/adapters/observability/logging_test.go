package observability

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "prod", "warn")
	l.Info().Msg("hidden")
	l.Warn().Str("stage", "hotel").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, `"stage":"hotel"`) {
		t.Fatalf("expected JSON field in %s", out)
	}
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "prod", "chatty")
	l.Debug().Msg("debug")
	l.Info().Msg("info")
	if strings.Contains(buf.String(), "debug") || !strings.Contains(buf.String(), "info") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
