// Package log provides process-wide structured logging for codegen.
//
// Verbosity follows the kubectl/klog convention: -v=N selects how chatty the
// tool is, with higher numbers including everything below them.
package log

import "log/slog"

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.Level(-8)

const (
	VerbosityError = 0 // errors only
	VerbosityWarn  = 1 // + warnings (default)
	VerbosityInfo  = 2 // + resolved config, backend selection
	VerbosityDebug = 3 // + staleness decisions, toolchain command lines
	VerbosityTrace = 4 // + per-file mtimes and fingerprints
)

// VerbosityToLevel maps -v=N to a slog level.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= VerbosityError:
		return slog.LevelError
	case v == VerbosityWarn:
		return slog.LevelWarn
	case v == VerbosityInfo:
		return slog.LevelInfo
	case v == VerbosityDebug:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelToVerbosity maps a slog level back to -v=N.
func LevelToVerbosity(l slog.Level) int {
	switch {
	case l >= slog.LevelError:
		return VerbosityError
	case l >= slog.LevelWarn:
		return VerbosityWarn
	case l >= slog.LevelInfo:
		return VerbosityInfo
	case l >= slog.LevelDebug:
		return VerbosityDebug
	default:
		return VerbosityTrace
	}
}

// LevelName returns the display name for l, including TRACE.
func LevelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return l.String()
}
