package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelError)
	})

	SetLevel(LevelInfo)
	Debug("hidden", "k", "v")
	Info("shown", "course", "Linear Algebra", "count", 2)
	Error("failed", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, `[INFO] shown course="Linear Algebra" count=2`) {
		t.Fatalf("missing info line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] failed err=boom") {
		t.Fatalf("missing error line: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":  LevelDebug,
		" INFO ": LevelInfo,
		"error":  LevelError,
		"":       LevelError,
		"trace":  LevelError,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
