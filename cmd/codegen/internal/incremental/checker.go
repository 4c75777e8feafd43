// Package incremental decides whether generated code needs rebuilding by
// comparing modification times of the inputs against the output.
package incremental

import (
	"fmt"
	"time"
)

// Reason explains why a Decision came out the way it did.
type Reason int

const (
	ReasonForced Reason = iota
	ReasonInputNewer
	ReasonOutputNewer
	ReasonLookupFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonForced:
		return "forced"
	case ReasonInputNewer:
		return "input-newer"
	case ReasonOutputNewer:
		return "output-newer"
	case ReasonLookupFailed:
		return "lookup-failed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Request describes one generation unit.
type Request struct {
	Includes   string // glob of query and mutation documents
	SchemaFile string
	OutputFile string
	Force      bool
}

// Decision is the outcome of a staleness check. Timestamps are zero when the
// check stopped before reaching them.
type Decision struct {
	Build  bool
	Reason Reason

	IncludesChangedAt time.Time
	SchemaChangedAt   time.Time
	InputChangedAt    time.Time
	OutputChangedAt   time.Time

	// Err is the lookup failure behind ReasonLookupFailed. It is never
	// returned to callers as an error.
	Err error
}

// Summary renders the decision the way --debug prints it.
func (d Decision) Summary() string {
	answer := "NO"
	if d.Build {
		answer = "YES"
	}

	var why string
	switch d.Reason {
	case ReasonForced:
		why = "Forced via command-line"
	case ReasonInputNewer:
		why = "Input changed more recently than output"
	case ReasonOutputNewer:
		why = "Output changed more recently than input"
	case ReasonLookupFailed:
		why = "Error checking mtimes"
		if d.Err != nil {
			why += ": " + d.Err.Error()
		}
	}
	return fmt.Sprintf("%s (%s)", answer, why)
}

// Checker evaluates Requests. The zero value is not usable; call NewChecker.
type Checker struct {
	tracef func(format string, args ...any)
}

// Option configures a Checker.
type Option func(*Checker)

// WithTracer installs a printf-style sink for human-readable trace lines.
func WithTracer(fn func(format string, args ...any)) Option {
	return func(c *Checker) {
		if fn != nil {
			c.tracef = fn
		}
	}
}

// NewChecker creates a Checker with the given options.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{tracef: func(string, ...any) {}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check decides whether req needs a build.
//
// A forced request short-circuits without touching the filesystem. Otherwise
// the build is required when the newest input is at least as new as the
// output; equal timestamps rebuild. Any lookup failure (no includes matched,
// missing schema, missing output) also rebuilds.
func (c *Checker) Check(req Request) Decision {
	if req.Force {
		d := Decision{Build: true, Reason: ReasonForced}
		c.tracef("Should build? %s", d.Summary())
		return d
	}

	d, err := c.compare(req)
	if err != nil {
		d.Build = true
		d.Reason = ReasonLookupFailed
		d.Err = err
	}
	c.tracef("Should build? %s", d.Summary())
	return d
}

// compare does the lookups. Errors propagate here and are absorbed by Check.
func (c *Checker) compare(req Request) (Decision, error) {
	var d Decision

	includes, err := ExpandGlob(req.Includes)
	if err != nil {
		return d, fmt.Errorf("includes: %w", err)
	}
	if len(includes) == 0 {
		return d, fmt.Errorf("includes %q: %w", req.Includes, ErrNoFiles)
	}
	d.IncludesChangedAt, err = LatestModTime(includes)
	if err != nil {
		return d, fmt.Errorf("includes: %w", err)
	}
	c.tracef("Includes last changed at %s", formatTime(d.IncludesChangedAt))

	d.SchemaChangedAt, err = ModTime(req.SchemaFile)
	if err != nil {
		return d, fmt.Errorf("schema file: %w", err)
	}
	c.tracef("Schema last changed at %s", formatTime(d.SchemaChangedAt))

	d.InputChangedAt = d.IncludesChangedAt
	if d.SchemaChangedAt.After(d.InputChangedAt) {
		d.InputChangedAt = d.SchemaChangedAt
	}
	c.tracef("Input last changed at %s", formatTime(d.InputChangedAt))

	d.OutputChangedAt, err = ModTime(req.OutputFile)
	if err != nil {
		return d, fmt.Errorf("output file: %w", err)
	}
	c.tracef("Output last changed at %s", formatTime(d.OutputChangedAt))

	if !d.InputChangedAt.Before(d.OutputChangedAt) {
		d.Build = true
		d.Reason = ReasonInputNewer
	} else {
		d.Reason = ReasonOutputNewer
	}
	return d, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
