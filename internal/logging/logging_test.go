package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atomikpanda/rigup/internal/color"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(&bytes.Buffer{}, tt.verbosity)

			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("setup(%d) set level to %v, want %v",
					tt.verbosity, zerolog.GlobalLevel(), tt.wantLevel)
			}
		})
	}
}

func TestGetLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	setup(&buf, 1)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.WarnLevel) })

	logger := GetLogger("runner")
	logger.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "runner") {
		t.Errorf("log output = %q, want message and component", out)
	}
}

func TestLevelFiltersBelowWarn(t *testing.T) {
	var buf bytes.Buffer
	setup(&buf, 0)

	logger := GetLogger("x")
	logger.Info().Msg("quiet")
	if strings.Contains(buf.String(), "quiet") {
		t.Errorf("info message leaked at verbosity 0: %q", buf.String())
	}
}

func TestNoEscapeCodesWhenRedirected(t *testing.T) {
	prev := color.Enabled
	color.Enabled = true
	t.Cleanup(func() {
		color.Enabled = prev
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	})

	f, err := os.Create(filepath.Join(t.TempDir(), "log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	setup(f, 0)
	logger := GetLogger("apply")
	logger.Warn().Msg("to a file")

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to a file") {
		t.Fatalf("log file = %q", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Errorf("log file contains escape codes even though stdout colour is on: %q", data)
	}
}

func TestColorForBuffer(t *testing.T) {
	if colorFor(&bytes.Buffer{}) {
		t.Error("a buffer is never a terminal")
	}
}
