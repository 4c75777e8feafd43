package cli

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/albertocavalcante/codegen/internal/log"
	"github.com/albertocavalcante/codegen/pkg/config"
)

// execute runs the root command with args from a clean flag state and
// returns what it wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)

	var stdout, stderr bytes.Buffer
	root := RootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	t.Cleanup(func() {
		root.SetOut(nil)
		root.SetErr(nil)
		root.SetArgs(nil)
	})

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// resetCommandState clears values and Changed marks left by earlier runs.
func resetCommandState() {
	for _, p := range []any{&globalFlags, &downloadFlags, &generateFlags, &validateFlags, &watchFlags} {
		reflect.ValueOf(p).Elem().SetZero()
	}
	globalFlags.verbosity = log.VerbosityWarn
	globalFlags.logFormat = log.FormatText
	downloadResolved = downloadSettings{}
	generateResolved = generateSettings{}
	cfg = config.NewConfig()

	var walk func(*cobra.Command)
	walk = func(c *cobra.Command) {
		unmark := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(unmark)
		c.PersistentFlags().VisitAll(unmark)
		c.SilenceUsage = false
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	for _, c := range RootCmd().Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

// TestNoFlagConflicts verifies that every subcommand can merge its local
// flags with the root's persistent flags without a shorthand clash.
func TestNoFlagConflicts(t *testing.T) {
	root := RootCmd()

	subcommands := root.Commands()
	if len(subcommands) == 0 {
		t.Fatal("expected at least one subcommand")
	}

	for _, cmd := range subcommands {
		t.Run(cmd.Name(), func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("flag conflict in %q command: %v", cmd.Name(), r)
				}
			}()
			_ = cmd.Flags()
			_ = cmd.InheritedFlags()
		})
	}
}

// TestGlobalVerbosityFlag verifies the global -v flag exists and is properly configured.
func TestGlobalVerbosityFlag(t *testing.T) {
	vFlag := RootCmd().PersistentFlags().Lookup("verbosity")
	if vFlag == nil {
		t.Fatal("expected persistent 'verbosity' flag on root command")
	}
	if vFlag.Shorthand != "v" {
		t.Errorf("expected verbosity flag shorthand to be 'v', got %q", vFlag.Shorthand)
	}
	if vFlag.DefValue != "1" {
		t.Errorf("expected verbosity default 1, got %q", vFlag.DefValue)
	}
}

// TestSubcommandsExist verifies expected subcommands are registered.
func TestSubcommandsExist(t *testing.T) {
	for _, name := range []string{"version", "download-schema", "generate-code", "validate-queries", "watch"} {
		findCommand(t, name)
	}
}

// TestVerboseFlagNoShorthand verifies that the watch --verbose flag does
// not take -v from the root.
func TestVerboseFlagNoShorthand(t *testing.T) {
	f := findCommand(t, "watch").Flags().Lookup("verbose")
	if f == nil {
		t.Fatal("watch has no --verbose flag")
	}
	if f.Shorthand != "" {
		t.Errorf("watch --verbose should not have a shorthand, got %q", f.Shorthand)
	}
}

func TestSharedGenerateFlags(t *testing.T) {
	tests := []struct {
		flag        string
		wantDefault string
	}{
		{"schema-file", ""},
		{"output-file", ""},
		{"cli-dir", ""},
		{"force", "false"},
		{"validate", "false"},
		{"backend", "genqlient"},
		{"target", "swift"},
		{"debug", "false"},
	}
	for _, name := range []string{"generate-code", "watch"} {
		cmd := findCommand(t, name)
		for _, tt := range tests {
			f := cmd.Flags().Lookup(tt.flag)
			if f == nil {
				t.Errorf("%s: flag --%s not found", name, tt.flag)
				continue
			}
			if f.DefValue != tt.wantDefault {
				t.Errorf("%s --%s default = %q, want %q", name, tt.flag, f.DefValue, tt.wantDefault)
			}
		}
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if stdout != "codegen dev (unknown)\n" {
		t.Errorf("version output = %q", stdout)
	}
}

func TestInvalidLogFormat(t *testing.T) {
	if _, _, err := execute(t, "--log-format", "xml", "version"); err == nil {
		t.Error("expected error for unknown log format")
	}
}
