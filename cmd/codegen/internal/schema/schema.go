// Package schema downloads GraphQL schemas in one or more output formats.
package schema

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Format is a schema output format.
type Format string

const (
	FormatSDL  Format = "sdl"
	FormatJSON Format = "json"
)

// Backend names accepted by --backend.
const (
	BackendLibrary = "library"
	BackendExec    = "exec"
)

// DefaultName is the schema file base name.
const DefaultName = "schema"

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

// ErrUnknownFormat is returned for a format other than sdl or json.
var ErrUnknownFormat = errors.New("unknown schema format")

// ErrUnknownBackend is returned for a backend other than library or exec.
var ErrUnknownBackend = errors.New("unknown schema backend")

// ParseBackend validates a backend name.
func ParseBackend(name string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(name)); b {
	case BackendLibrary, BackendExec:
		return b, nil
	default:
		return "", fmt.Errorf("%w %q (want %s or %s)", ErrUnknownBackend, name, BackendLibrary, BackendExec)
	}
}

// ParseFormat parses a --formats value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSDL, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q (want sdl or json)", ErrUnknownFormat, s)
	}
}

// ParseFormats parses and de-duplicates formats, keeping their order.
func ParseFormats(values []string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, v := range values {
		f, err := ParseFormat(v)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Extension returns the file extension written for f.
func (f Format) Extension() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".graphqls"
}

// Request is a single-format download.
type Request struct {
	Endpoint  string
	OutputDir string
	Name      string
	Format    Format
	Headers   http.Header
	Timeout   time.Duration
}

// OutputPath is the file the request writes.
func (r Request) OutputPath() string {
	name := r.Name
	if name == "" {
		name = DefaultName
	}
	return filepath.Join(r.OutputDir, name+r.Format.Extension())
}

func (r Request) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

// Fetcher downloads one schema format and returns the path it wrote.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (string, error)
}

// DownloadAll fetches each format in order. The first failure aborts the
// remaining formats. onFetched, if non-nil, is called after each success.
func DownloadAll(ctx context.Context, f Fetcher, base Request, formats []Format, onFetched func(Format, string)) error {
	for _, format := range formats {
		req := base
		req.Format = format

		path, err := f.Fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("download %s schema from %s: %w", format, req.Endpoint, err)
		}
		if onFetched != nil {
			onFetched(format, path)
		}
	}
	return nil
}

// ParseHeaders parses "Key: Value" pairs.
func ParseHeaders(values []string) (http.Header, error) {
	headers := make(http.Header)
	for _, v := range values {
		key, value, ok := strings.Cut(v, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q (want \"Key: Value\")", v)
		}
		headers.Add(key, strings.TrimSpace(value))
	}
	return headers, nil
}
