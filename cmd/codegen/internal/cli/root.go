// Package cli implements the codegen command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/codegen/internal/log"
	"github.com/albertocavalcante/codegen/pkg/config"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity  int
	logFormat  string
	configFile string
}

// cfg is the layered configuration, loaded before any command runs.
var cfg = config.NewConfig()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codegen",
	Short: "GraphQL schema download and client code generation",
	Long: `codegen downloads a GraphQL schema from a live endpoint and generates
client code from it plus your operation documents.

generate-code compares file modification times first and does nothing when
the generated output is already newer than every input.`,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "codegen %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", log.VerbosityWarn,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", log.FormatText,
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "",
		"Config file (TOML or YAML), applied over project config")

	cobra.OnInitialize(initLogging)
}

// initLogging applies the logging flags before config files are read, so
// problems in those files are reported at the requested verbosity.
func initLogging() {
	log.Init(globalFlags.verbosity, globalFlags.logFormat)
}

// loadConfig reads the config layers and lets them set logging options the
// command line left alone.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := log.ValidateFormat(globalFlags.logFormat); err != nil {
		return err
	}

	loaded, err := config.Load(globalFlags.configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	verbosity := globalFlags.verbosity
	if !cmd.Flags().Changed("verbosity") && cfg.Log.Verbosity != nil {
		verbosity = *cfg.Log.Verbosity
	}
	format := globalFlags.logFormat
	if !cmd.Flags().Changed("log-format") && cfg.Log.Format != "" {
		if err := log.ValidateFormat(cfg.Log.Format); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		format = cfg.Log.Format
	}
	log.InitWithOutput(verbosity, format, cmd.ErrOrStderr())

	if len(cfg.Sources) > 0 {
		log.Debug("configuration loaded", "sources", cfg.Sources)
	}
	return nil
}

// Execute runs the root command and exits 1 on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
