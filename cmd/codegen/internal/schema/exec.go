package schema

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/runner"
)

// ExecFetcher delegates to the toolchain's client:download-schema command.
type ExecFetcher struct {
	runner *runner.Runner
}

// NewExecFetcher creates an ExecFetcher.
func NewExecFetcher(r *runner.Runner) *ExecFetcher {
	return &ExecFetcher{runner: r}
}

// Args returns the toolchain arguments for req.
func (f *ExecFetcher) Args(req Request) []string {
	args := []string{"client:download-schema", "--endpoint=" + req.Endpoint}
	for _, key := range slices.Sorted(maps.Keys(req.Headers)) {
		for _, v := range req.Headers[key] {
			args = append(args, "--header="+key+":"+v)
		}
	}
	return append(args, req.OutputPath())
}

// Fetch implements Fetcher.
func (f *ExecFetcher) Fetch(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(req.OutputPath()), 0o755); err != nil {
		return "", err
	}
	if err := f.runner.Run(ctx, f.Args(req)...); err != nil {
		return "", err
	}
	return req.OutputPath(), nil
}
