package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  slog.Level
	}{
		{-1, slog.LevelError},
		{0, slog.LevelError},
		{1, slog.LevelWarn},
		{2, slog.LevelInfo},
		{3, slog.LevelDebug},
		{4, LevelTrace},
		{9, LevelTrace},
	}

	for _, tt := range tests {
		if got := VerbosityToLevel(tt.verbosity); got != tt.expected {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.expected)
		}
	}
}

func TestLevelToVerbosityRoundTrip(t *testing.T) {
	for v := VerbosityError; v <= VerbosityTrace; v++ {
		if got := LevelToVerbosity(VerbosityToLevel(v)); got != v {
			t.Errorf("LevelToVerbosity(VerbosityToLevel(%d)) = %d", v, got)
		}
	}
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{LevelTrace, "TRACE"},
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelInfo, "INFO"},
		{slog.LevelWarn, "WARN"},
		{slog.LevelError, "ERROR"},
	}

	for _, tt := range tests {
		if got := LevelName(tt.level); got != tt.expected {
			t.Errorf("LevelName(%v) = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestRaiseVerbosity(t *testing.T) {
	SetVerbosity(VerbosityWarn)
	t.Cleanup(func() { SetVerbosity(VerbosityWarn) })

	RaiseVerbosity(VerbosityDebug)
	if Verbosity() != VerbosityDebug {
		t.Errorf("Verbosity() = %d, want %d", Verbosity(), VerbosityDebug)
	}

	RaiseVerbosity(VerbosityInfo)
	if Verbosity() != VerbosityDebug {
		t.Errorf("RaiseVerbosity lowered verbosity to %d", Verbosity())
	}
}

func TestV(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(VerbosityInfo, FormatText, &buf)
	t.Cleanup(func() { SetVerbosity(VerbosityWarn) })

	V(2).Info("should appear", "key", "value")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("V(2) should log at verbosity 2, got: %s", buf.String())
	}

	buf.Reset()
	V(3).Info("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Errorf("V(3) should not log at verbosity 2, got: %s", buf.String())
	}
}

func TestTraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(VerbosityTrace, FormatText, &buf)
	t.Cleanup(func() { SetVerbosity(VerbosityWarn) })

	Trace("mtime", "path", "a.graphql")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected level=TRACE, got: %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(VerbosityInfo, FormatText, &buf)
	t.Cleanup(func() { SetVerbosity(VerbosityWarn) })

	Component("runner").Info("test message")
	if !strings.Contains(buf.String(), "component=runner") {
		t.Errorf("Component should add component attr, got: %s", buf.String())
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(HandlerOptions{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Output: &buf,
	}))
	l.Info("test", "key", "value")

	if !strings.Contains(buf.String(), `"key":"value"`) {
		t.Errorf("JSON handler should output JSON, got: %s", buf.String())
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{FormatText, FormatJSON} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateFormat("xml"); err == nil {
		t.Error("ValidateFormat(xml) should fail")
	}
}
