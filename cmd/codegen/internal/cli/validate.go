package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/gqlcheck"
)

var validateFlags struct {
	schemaFile string
}

var validateQueriesCmd = &cobra.Command{
	Use:   "validate-queries <includes-glob>",
	Short: "Check operation documents against an SDL schema",
	Long: `Parses the SDL schema and validates every operation document matching the
includes glob. Documents are checked together, so a fragment defined in one
file can be used in another. Problems are printed as file:line:column.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateQueries,
}

func init() {
	validateQueriesCmd.Flags().Var(newFileValue(&validateFlags.schemaFile), "schema-file", "SDL schema file")
	rootCmd.AddCommand(validateQueriesCmd)
}

func runValidateQueries(cmd *cobra.Command, args []string) error {
	schemaFile := pick(cmd, "schema-file", validateFlags.schemaFile, cfg.Generate.SchemaFile)
	includes := cfg.Generate.Includes
	if len(args) > 0 {
		includes = args[0]
	}
	if schemaFile == "" {
		return errors.New("--schema-file is required")
	}
	if includes == "" {
		return errors.New("an includes glob argument is required")
	}
	cmd.SilenceUsage = true

	result, err := gqlcheck.CheckGlob(schemaFile, includes)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range result.Problems {
		_, _ = fmt.Fprintln(out, p.String())
	}
	if !result.OK() {
		return fmt.Errorf("%d validation problem(s) in %d file(s)", len(result.Problems), len(result.Files))
	}
	_, _ = fmt.Fprintf(out, "%d operation(s) in %d file(s) are valid\n", len(result.Operations), len(result.Files))
	return nil
}
