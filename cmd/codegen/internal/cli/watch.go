package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/watch"
)

var watchFlags struct {
	debounce int
	json     bool
	noColor  bool
	verbose  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch <includes-glob>",
	Short: "Regenerate code whenever operations or the schema change",
	Long: `Runs generate-code once, then watches the operation documents and the
schema file and regenerates when their contents change.

Example output:

  $ codegen watch --schema-file schema.graphqls --output-file API.swift \
      --cli-dir .codegen/cli 'Sources/**/*.graphql'

  codegen: watching 12 inputs (Sources/**/*.graphql, schema.graphqls)
  codegen: ready
  [14:32:15] Sources/Feed/Feed.graphql changed, generating...
  [14:32:16] ✓ API.swift generated in 812ms

Press Ctrl+C to stop watching.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: prepareGenerate,
	RunE:    runWatch,
}

func init() {
	addGenerateFlags(watchCmd)
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", int(watch.DefaultDebounce/time.Millisecond),
		"Debounce window in milliseconds")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	s := generateResolved

	debounce := cfg.Watch.Debounce
	if cmd.Flags().Changed("debounce") {
		debounce = time.Duration(watchFlags.debounce) * time.Millisecond
	}
	jsonOut := pick(cmd, "json", watchFlags.json, cfg.Watch.JSON != nil && *cfg.Watch.JSON)
	noColor := pick(cmd, "no-color", watchFlags.noColor, cfg.Watch.NoColor != nil && *cfg.Watch.NoColor)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	// --force only applies to the first pass.
	force := s.force
	w, err := watch.New(watch.Config{
		Includes:   s.includes,
		SchemaFile: s.schemaFile,
		OutputFile: s.outputFile,
		Debounce:   debounce,
		Writer:     cmd.OutOrStdout(),
		Verbose:    watchFlags.verbose,
		NoColor:    noColor,
		JSON:       jsonOut,
		Pass: func(ctx context.Context) (bool, error) {
			pass := s
			pass.force = force
			force = false
			return generatePass(ctx, cmd, pass)
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}
