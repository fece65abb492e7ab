package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/errors"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		env     string
		want    log.Level
		wantErr bool
	}{
		{"default", false, "", log.InfoLevel, false},
		{"verbose", true, "", log.DebugLevel, false},
		{"verbose wins over env", true, "error", log.DebugLevel, false},
		{"env", false, " warn ", log.WarnLevel, false},
		{"bad env", false, "chatty", log.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveLevel(tt.verbose, tt.env, log.InfoLevel)
			if got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
			if tt.wantErr != errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("cache hit")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("cache hit")
	if !strings.Contains(buf.String(), "cache hit") {
		t.Errorf("debug not written after SetLogLevel: %q", buf.String())
	}
}

func TestTimed(t *testing.T) {
	var buf bytes.Buffer
	timed(newLogger(&buf, log.InfoLevel))("fetched", "rows", 3)

	out := buf.String()
	for _, want := range []string{"fetched", "rows=3", "took="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q lacks %q", out, want)
		}
	}
}

func TestLoggerFrom(t *testing.T) {
	if loggerFrom(context.Background()) != log.Default() {
		t.Error("expected log.Default() without an attached logger")
	}
	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if loggerFrom(contextWithLogger(context.Background(), l)) != l {
		t.Error("attached logger not returned")
	}
}
