package codegen

import (
	"context"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/runner"
)

// Exec generates code with the toolchain's client:codegen command. The
// include glob is resolved by the toolchain from the current directory.
type Exec struct {
	runner *runner.Runner
}

// NewExec creates an Exec generator.
func NewExec(r *runner.Runner) *Exec {
	return &Exec{runner: r}
}

// Args returns the toolchain arguments for req.
func (e *Exec) Args(req Request) []string {
	target := req.Target
	if target == "" {
		target = DefaultTarget
	}
	return []string{
		"client:codegen",
		"--includes=" + req.Includes,
		"--localSchemaFile=" + req.SchemaFile,
		"--target=" + target,
		"--passthroughCustomScalars",
		req.OutputFile,
	}
}

// Generate implements Generator.
func (e *Exec) Generate(ctx context.Context, req Request) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(req.OutputFile), 0o755); err != nil {
		return nil, err
	}
	if err := e.runner.Run(ctx, e.Args(req)...); err != nil {
		return nil, err
	}
	return []string{req.OutputFile}, nil
}
