package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level log.Level
		debug bool
	}{
		{log.InfoLevel, false},
		{log.DebugLevel, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		l := newLogger(&buf, tt.level)
		l.Debug("Cleared store")
		if got := buf.Len() > 0; got != tt.debug {
			t.Errorf("level %v: debug written = %v, want %v", tt.level, got, tt.debug)
		}
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("Saved", "file", "json_files/express.json")
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("line %q does not start with an HH:MM:SS.ms timestamp", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("without a logger the default one is used")
	}
	l := newLogger(io.Discard, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("the attached logger is returned")
	}
}

// TestStageProgress checks the completion lines the parse and import
// commands log, elapsed time included.
func TestStageProgress(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "json_files", "app.json"), lockfileV1)
	writeFile(t, filepath.Join(dir, "json_files", "broken.json"), `{"lockfileVersion": 1, `)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"parse", "auto", "json_files"}, "Parsed 1 of 2 lockfiles ("},
		{[]string{"--store", "memory", "import", filepath.Join("parsed", "app_parsed.json")}, "Imported 2 packages ("},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		root := New(&buf, LogInfo).RootCommand()
		root.SetArgs(tt.args)
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("%v: log missing %q:\n%s", tt.args, tt.want, buf.String())
		}
	}
}
