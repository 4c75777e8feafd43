// Package codegen runs GraphQL client code generation through a pluggable
// backend: genqlient in-process, or an external toolchain binary.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by --backend.
const (
	BackendGenqlient = "genqlient"
	BackendExec      = "exec"
)

// DefaultTarget is the language target passed to the exec backend.
const DefaultTarget = "swift"

// ErrUnknownBackend is returned for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown codegen backend")

// ParseBackend validates a backend name.
func ParseBackend(name string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(name)); b {
	case BackendGenqlient, BackendExec:
		return b, nil
	default:
		return "", fmt.Errorf("%w %q (want %s or %s)", ErrUnknownBackend, name, BackendGenqlient, BackendExec)
	}
}

// Request describes one generation run.
type Request struct {
	Includes   string // glob of operation documents
	SchemaFile string
	OutputFile string

	// Package is the Go package of the generated file (genqlient only).
	// Empty derives it from the output directory name.
	Package string

	// Target is the toolchain language target (exec only).
	Target string
}

// Generator produces generated code for a Request and returns the files it
// wrote. Files are written only once generation has fully succeeded.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]string, error)
}
