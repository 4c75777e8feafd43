// Package runner locates and executes an external GraphQL codegen toolchain
// binary (for example the Apollo CLI) kept in the --cli-dir directory.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/codegen/internal/fsutil"
	"github.com/albertocavalcante/codegen/internal/log"
)

// DefaultBinary is the toolchain executable name looked up when none is configured.
const DefaultBinary = "apollo"

// ErrToolchainNotFound is returned when the toolchain binary cannot be located.
var ErrToolchainNotFound = errors.New("codegen toolchain binary not found")

// Runner finds and runs the toolchain binary.
type Runner struct {
	cliDir         string
	binary         string
	executablePath string // path to the codegen executable, for the sibling lookup
	stdout         io.Writer
	stderr         io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithCLIDir sets the directory holding the toolchain.
func WithCLIDir(dir string) Option {
	return func(r *Runner) {
		r.cliDir = dir
	}
}

// WithBinary overrides the toolchain executable name.
func WithBinary(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.binary = name
		}
	}
}

// WithExecutablePath sets the path of the running codegen executable.
// Used primarily for testing.
func WithExecutablePath(path string) Option {
	return func(r *Runner) {
		r.executablePath = path
	}
}

// WithOutput redirects the toolchain's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{
		binary: DefaultBinary,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindToolchain locates the toolchain binary using the following search order:
//  1. <cli-dir>/<binary>/bin/run (unpacked npm tarball layout)
//  2. <cli-dir>/bin/<binary>
//  3. <cli-dir>/<binary>
//  4. sibling of the codegen executable
//  5. PATH lookup
func (r *Runner) FindToolchain() (string, error) {
	if r.cliDir != "" {
		candidates := []string{
			filepath.Join(r.cliDir, r.binary, "bin", "run"),
			filepath.Join(r.cliDir, "bin", r.binary),
			filepath.Join(r.cliDir, r.binary),
		}
		for _, candidate := range candidates {
			if fsutil.IsFile(candidate) {
				return candidate, nil
			}
		}
	}

	if path := r.findSibling(); path != "" {
		return path, nil
	}

	if path, err := exec.LookPath(r.binary); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %q (cli dir %q)", ErrToolchainNotFound, r.binary, r.cliDir)
}

func (r *Runner) findSibling() string {
	exe := r.executablePath
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return ""
		}
	}
	sibling := filepath.Join(filepath.Dir(exe), r.binary)
	if fsutil.IsFile(sibling) {
		return sibling
	}
	return ""
}

// Run executes the toolchain with args and waits for it to finish.
func (r *Runner) Run(ctx context.Context, args ...string) error {
	path, err := r.FindToolchain()
	if err != nil {
		return err
	}

	log.Component("runner").Debug("running toolchain", "path", path, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = nil
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", r.binary, subcommand(args), err)
	}
	return nil
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
