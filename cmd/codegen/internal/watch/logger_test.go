package watch

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Ready(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf})

	l.Ready(4, "queries/**/*.graphql", "schema.graphqls")

	out := buf.String()
	for _, want := range []string{"4 inputs", "queries/**/*.graphql", "schema.graphqls", "ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestLogger_FileChanged(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    string
	}{
		{"verbose", true, "~ queries/a.graphql"},
		{"quiet", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(LoggerConfig{Writer: &buf, Verbose: tt.verbose, NoColor: true})

			l.FileChanged("queries/a.graphql", ChangeModified)

			out := buf.String()
			if tt.want == "" && out != "" {
				t.Errorf("expected no output, got %q", out)
			}
			if tt.want != "" && !strings.Contains(out, tt.want) {
				t.Errorf("missing %q in %q", tt.want, out)
			}
		})
	}
}

func TestLogger_Generating(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf})

	l.Generating([]string{"queries/a.graphql"})
	l.Generating([]string{"a", "b", "c"})

	out := buf.String()
	if !strings.Contains(out, "queries/a.graphql changed") {
		t.Errorf("missing single-file line in %q", out)
	}
	if !strings.Contains(out, "3 files changed") {
		t.Errorf("missing batch line in %q", out)
	}
}

func TestLogger_StatsAndShutdown(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf})

	l.Generated("API.swift", 12*time.Millisecond)
	l.Generated("API.swift", 8*time.Millisecond)
	l.UpToDate("API.swift")
	l.Error(errors.New("boom"))

	s := l.Stats()
	if s.Generations != 2 || s.Skipped != 1 || s.Errors != 1 {
		t.Errorf("Stats() = %+v", s)
	}

	l.Shutdown()
	out := buf.String()
	if !strings.Contains(out, "error: boom") {
		t.Errorf("missing error line in %q", out)
	}
	if !strings.Contains(out, "2 generations, 1 errors") {
		t.Errorf("missing totals in %q", out)
	}
}

func TestLogger_UpToDateQuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf})

	l.UpToDate("API.swift")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf, JSON: true})

	l.Ready(2, "q/*.graphql", "schema.graphqls")
	l.FileChanged("q/a.graphql", ChangeAdded)
	l.Generated("API.swift", time.Second)
	l.Error(errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 JSON lines, got %d: %q", len(lines), buf.String())
	}

	wantEvents := []string{"ready", "file_changed", "generated", "error"}
	for i, line := range lines {
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if ev["event"] != wantEvents[i] {
			t.Errorf("line %d event = %v, want %s", i, ev["event"], wantEvents[i])
		}
		if _, ok := ev["time"]; !ok {
			t.Errorf("line %d has no time", i)
		}
	}

	var changed map[string]any
	_ = json.Unmarshal([]byte(lines[1]), &changed)
	if changed["change"] != "+" || changed["path"] != "q/a.graphql" {
		t.Errorf("file_changed = %v", changed)
	}
}

func TestLogger_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf})

	l.Error(errors.New("boom"))

	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("non-terminal output contains ANSI codes: %q", buf.String())
	}
}
