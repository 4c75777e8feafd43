package runner_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/runner"
)

func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestFindToolchain_TarballLayout(t *testing.T) {
	cliDir := t.TempDir()
	want := filepath.Join(cliDir, "apollo", "bin", "run")
	writeExecutable(t, want, "fake")
	// Lower-priority candidate must lose.
	writeExecutable(t, filepath.Join(cliDir, "bin", "apollo"), "fake")

	r := runner.New(runner.WithCLIDir(cliDir), runner.WithExecutablePath(filepath.Join(t.TempDir(), "codegen")))
	got, err := r.FindToolchain()
	if err != nil {
		t.Fatalf("FindToolchain() error = %v", err)
	}
	if got != want {
		t.Errorf("FindToolchain() = %q, want %q", got, want)
	}
}

func TestFindToolchain_BinDir(t *testing.T) {
	cliDir := t.TempDir()
	want := filepath.Join(cliDir, "bin", "gql-tool")
	writeExecutable(t, want, "fake")

	r := runner.New(
		runner.WithCLIDir(cliDir),
		runner.WithBinary("gql-tool"),
		runner.WithExecutablePath(filepath.Join(t.TempDir(), "codegen")),
	)
	got, err := r.FindToolchain()
	if err != nil {
		t.Fatalf("FindToolchain() error = %v", err)
	}
	if got != want {
		t.Errorf("FindToolchain() = %q, want %q", got, want)
	}
}

func TestFindToolchain_Sibling(t *testing.T) {
	binDir := t.TempDir()
	codegenPath := filepath.Join(binDir, "codegen")
	want := filepath.Join(binDir, "gql-tool-sibling")
	writeExecutable(t, codegenPath, "fake")
	writeExecutable(t, want, "fake")

	r := runner.New(
		runner.WithCLIDir(t.TempDir()),
		runner.WithBinary("gql-tool-sibling"),
		runner.WithExecutablePath(codegenPath),
	)
	got, err := r.FindToolchain()
	if err != nil {
		t.Fatalf("FindToolchain() error = %v", err)
	}
	if got != want {
		t.Errorf("FindToolchain() = %q, want %q", got, want)
	}
}

func TestFindToolchain_NotFound(t *testing.T) {
	r := runner.New(
		runner.WithCLIDir(t.TempDir()),
		runner.WithBinary("definitely-not-a-real-toolchain-binary"),
		runner.WithExecutablePath(filepath.Join(t.TempDir(), "codegen")),
	)
	_, err := r.FindToolchain()
	if !errors.Is(err, runner.ErrToolchainNotFound) {
		t.Errorf("FindToolchain() error = %v, want ErrToolchainNotFound", err)
	}
}

func TestFindToolchain_IgnoresDirectories(t *testing.T) {
	cliDir := t.TempDir()
	// <cli-dir>/apollo exists but only as a directory without bin/run.
	if err := os.MkdirAll(filepath.Join(cliDir, "apollo"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New(
		runner.WithCLIDir(cliDir),
		runner.WithBinary("apollo"),
		runner.WithExecutablePath(filepath.Join(t.TempDir(), "codegen")),
	)
	got, err := r.FindToolchain()
	if err == nil && strings.HasPrefix(got, cliDir) {
		t.Errorf("FindToolchain() returned directory-derived path %q", got)
	}
}

func TestRun_PassesArguments(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script toolchain")
	}

	cliDir := t.TempDir()
	writeExecutable(t, filepath.Join(cliDir, "bin", "fake-tool"), "#!/bin/sh\necho \"$@\"\n")

	var stdout bytes.Buffer
	r := runner.New(
		runner.WithCLIDir(cliDir),
		runner.WithBinary("fake-tool"),
		runner.WithOutput(&stdout, &stdout),
	)
	if err := r.Run(context.Background(), "client:codegen", "--target=swift"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "client:codegen --target=swift" {
		t.Errorf("toolchain saw %q", got)
	}
}

func TestRun_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script toolchain")
	}

	cliDir := t.TempDir()
	writeExecutable(t, filepath.Join(cliDir, "bin", "fake-tool"), "#!/bin/sh\necho boom >&2\nexit 3\n")

	var stderr bytes.Buffer
	r := runner.New(runner.WithCLIDir(cliDir), runner.WithBinary("fake-tool"),
		runner.WithOutput(io.Discard, &stderr))
	err := r.Run(context.Background(), "client:download-schema")
	if err == nil {
		t.Fatal("Run() expected error for non-zero exit")
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("stderr = %q, want toolchain output", stderr.String())
	}
	if !strings.Contains(err.Error(), "client:download-schema") {
		t.Errorf("error %q should name the subcommand", err)
	}
}
