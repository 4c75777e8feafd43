package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/codegen"
	"github.com/albertocavalcante/codegen/cmd/codegen/internal/runner"
	"github.com/albertocavalcante/codegen/cmd/codegen/internal/schema"
)

// newFetcher builds the schema fetcher for a backend. Tests replace it.
var newFetcher = func(backend string, r *runner.Runner) schema.Fetcher {
	if backend == schema.BackendExec {
		return schema.NewExecFetcher(r)
	}
	return schema.NewLibraryFetcher(nil)
}

// newGenerator builds the code generator for a backend. Tests replace it.
var newGenerator = func(backend string, r *runner.Runner) codegen.Generator {
	if backend == codegen.BackendExec {
		return codegen.NewExec(r)
	}
	return codegen.NewGenqlient()
}

// newRunner returns a toolchain runner whose output follows the command's.
func newRunner(cmd *cobra.Command, cliDir, binary string) *runner.Runner {
	return runner.New(
		runner.WithCLIDir(cliDir),
		runner.WithBinary(binary),
		runner.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)
}

// tracer returns the --debug sink. Trace lines go to stdout, one per call.
func tracer(cmd *cobra.Command, enabled bool) func(format string, args ...any) {
	if !enabled {
		return func(string, ...any) {}
	}
	out := cmd.OutOrStdout()
	return func(format string, args ...any) {
		_, _ = fmt.Fprintf(out, format+"\n", args...)
	}
}

// pick returns the flag value when the flag was set on the command line,
// otherwise the configured value.
func pick[T any](cmd *cobra.Command, name string, flagValue, configured T) T {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return configured
}
