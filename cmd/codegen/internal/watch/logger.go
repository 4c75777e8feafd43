package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// ChangeType is the kind of filesystem change that triggered a pass.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Stats counts what happened during a watch session.
type Stats struct {
	Generations int
	Skipped     int
	Errors      int
	StartTime   time.Time
}

// LoggerConfig configures a Logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// Logger prints watch events either as short human lines or as one JSON
// object per line.
type Logger struct {
	mu      sync.Mutex
	w       io.Writer
	color   bool
	verbose bool
	json    bool
	stats   Stats
	now     func() time.Time
}

// NewLogger returns a logger writing to cfg.Writer, or stdout when nil.
// Color is only used when the writer is a terminal.
func NewLogger(cfg LoggerConfig) *Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	color := false
	if f, ok := w.(*os.File); ok && !cfg.NoColor {
		color = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		w:       w,
		color:   color,
		verbose: cfg.Verbose,
		json:    cfg.JSON,
		stats:   Stats{StartTime: time.Now()},
		now:     time.Now,
	}
}

// Ready reports that watches are in place.
func (l *Logger) Ready(inputs int, includes, schema string) {
	if l.json {
		l.event("ready", map[string]any{"inputs": inputs, "includes": includes, "schema": schema})
		return
	}
	l.printf("codegen: watching %d inputs (%s, %s)\n", inputs, includes, schema)
	l.printf("codegen: ready\n")
}

// FileChanged reports a relevant filesystem event. Text output only shows
// it in verbose mode.
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.json {
		l.event("file_changed", map[string]any{"path": path, "change": string(change)})
		return
	}
	if l.verbose {
		l.printf("[%s] %s %s\n", l.clock(), l.paint(string(change), change), path)
	}
}

// Generating reports the start of a generation pass for a batch of changes.
func (l *Logger) Generating(changed []string) {
	if l.json {
		l.event("generating", map[string]any{"changed": changed})
		return
	}
	if len(changed) == 1 {
		l.printf("[%s] %s changed, generating...\n", l.clock(), changed[0])
		return
	}
	l.printf("[%s] %d files changed, generating...\n", l.clock(), len(changed))
}

// Generated reports a successful pass that wrote output.
func (l *Logger) Generated(output string, elapsed time.Duration) {
	l.mu.Lock()
	l.stats.Generations++
	l.mu.Unlock()

	if l.json {
		l.event("generated", map[string]any{"output": output, "elapsed": elapsed.String()})
		return
	}
	l.printf("[%s] %s %s generated in %s\n", l.clock(), l.paint("✓", ChangeAdded), output, elapsed.Round(time.Millisecond))
}

// UpToDate reports a batch that needed no work.
func (l *Logger) UpToDate(output string) {
	l.mu.Lock()
	l.stats.Skipped++
	l.mu.Unlock()

	if l.json {
		l.event("up_to_date", map[string]any{"output": output})
		return
	}
	if l.verbose {
		l.printf("[%s] %s is up to date\n", l.clock(), output)
	}
}

// Error reports a failed pass or watcher error.
func (l *Logger) Error(err error) {
	l.mu.Lock()
	l.stats.Errors++
	l.mu.Unlock()

	if l.json {
		l.event("error", map[string]any{"error": err.Error()})
		return
	}
	l.printf("[%s] %s error: %v\n", l.clock(), l.paint("✗", ChangeDeleted), err)
}

// Shutdown prints session totals.
func (l *Logger) Shutdown() {
	s := l.Stats()
	if l.json {
		l.event("shutdown", map[string]any{
			"generations": s.Generations,
			"skipped":     s.Skipped,
			"errors":      s.Errors,
			"duration":    time.Since(s.StartTime).Round(time.Millisecond).String(),
		})
		return
	}
	l.printf("codegen: shutting down (%d generations, %d errors)\n", s.Generations, s.Errors)
}

// Stats returns a snapshot of the session counters.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Logger) clock() string {
	return l.now().Format("15:04:05")
}

func (l *Logger) paint(s string, change ChangeType) string {
	if !l.color {
		return s
	}
	var code string
	switch change {
	case ChangeAdded:
		code = "\033[32m"
	case ChangeModified:
		code = "\033[33m"
	case ChangeDeleted:
		code = "\033[31m"
	default:
		return s
	}
	return code + s + "\033[0m"
}

func (l *Logger) event(name string, fields map[string]any) {
	fields["event"] = name
	if _, ok := fields["time"]; !ok {
		fields["time"] = l.now().Format(time.RFC3339)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		l.printf("{\"event\":\"internal_error\",\"error\":%q}\n", err.Error())
		return
	}
	l.printf("%s\n", data)
}

// printf ignores write errors; watch output is informational.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.w, format, args...)
}
