package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/codegen"
	"github.com/albertocavalcante/codegen/cmd/codegen/internal/gqlcheck"
	"github.com/albertocavalcante/codegen/cmd/codegen/internal/incremental"
	"github.com/albertocavalcante/codegen/internal/log"
)

// generateFlags are shared by generate-code and watch.
var generateFlags struct {
	schemaFile string
	outputFile string
	cliDir     string
	force      bool
	validate   bool
	pkg        string
	backend    string
	target     string
	debug      bool
}

// generateSettings are the generation inputs after merging config and flags.
type generateSettings struct {
	includes   string
	schemaFile string
	outputFile string
	cliDir     string
	binary     string
	backend    string
	pkg        string
	target     string
	force      bool
	validate   bool
	debug      bool
}

func (s generateSettings) request() codegen.Request {
	return codegen.Request{
		Includes:   s.includes,
		SchemaFile: s.schemaFile,
		OutputFile: s.outputFile,
		Package:    s.pkg,
		Target:     s.target,
	}
}

var generateResolved generateSettings

var generateCodeCmd = &cobra.Command{
	Use:   "generate-code <includes-glob>",
	Short: "Generate client code from a schema and operation documents",
	Long: `Generates client code from the schema file and every operation document
matching the includes glob ("**" matches nested directories).

Generation is skipped when the output file is newer than all inputs. Equal
timestamps, a missing output, or any lookup failure trigger a rebuild.`,
	Example: `  codegen generate-code --schema-file schema.graphqls --output-file API.swift \
    --cli-dir .codegen/cli --backend exec 'Sources/**/*.graphql'`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: prepareGenerate,
	RunE:    runGenerateCode,
}

func init() {
	addGenerateFlags(generateCodeCmd)
	rootCmd.AddCommand(generateCodeCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Var(newFileValue(&generateFlags.schemaFile), "schema-file", "Schema file (SDL, or JSON for the exec backend)")
	flags.Var(newFileValue(&generateFlags.outputFile), "output-file", "Generated output file")
	flags.Var(newDirValue(&generateFlags.cliDir), "cli-dir", "Directory holding the codegen toolchain")
	flags.BoolVar(&generateFlags.force, "force", false, "Generate even when the output is up to date")
	flags.BoolVar(&generateFlags.validate, "validate", false, "Validate operations against the schema before generating")
	flags.StringVar(&generateFlags.pkg, "package", "", "Go package of the generated file (genqlient backend)")
	flags.StringVar(&generateFlags.backend, "backend", codegen.BackendGenqlient, "Generation backend: genqlient or exec")
	flags.StringVar(&generateFlags.target, "target", codegen.DefaultTarget, "Toolchain language target (exec backend)")
	flags.BoolVar(&generateFlags.debug, "debug", false, "Print resolved arguments and the staleness decision to stdout")
}

func prepareGenerate(cmd *cobra.Command, args []string) error {
	s, err := resolveGenerate(cmd, args)
	if err != nil {
		return err
	}
	generateResolved = s
	if s.debug {
		log.RaiseVerbosity(log.VerbosityDebug)
	}
	return nil
}

func resolveGenerate(cmd *cobra.Command, args []string) (generateSettings, error) {
	s := generateSettings{
		includes:   cfg.Generate.Includes,
		schemaFile: pick(cmd, "schema-file", generateFlags.schemaFile, cfg.Generate.SchemaFile),
		outputFile: pick(cmd, "output-file", generateFlags.outputFile, cfg.Generate.OutputFile),
		cliDir:     pick(cmd, "cli-dir", generateFlags.cliDir, cfg.Toolchain.CLIDir),
		binary:     cfg.Toolchain.Binary,
		pkg:        pick(cmd, "package", generateFlags.pkg, cfg.Generate.Package),
		target:     pick(cmd, "target", generateFlags.target, cfg.Generate.Target),
		validate:   pick(cmd, "validate", generateFlags.validate, cfg.ValidateEnabled()),
		force:      generateFlags.force,
		debug:      generateFlags.debug,
	}
	if len(args) > 0 {
		s.includes = args[0]
	}

	if s.includes == "" {
		return s, errors.New("an includes glob argument is required")
	}
	if s.schemaFile == "" {
		return s, errors.New("--schema-file is required")
	}
	if err := validateFile(s.schemaFile); err != nil {
		return s, err
	}
	if s.outputFile == "" {
		return s, errors.New("--output-file is required")
	}
	if err := validateFile(s.outputFile); err != nil {
		return s, err
	}
	if s.cliDir == "" {
		return s, errors.New("--cli-dir is required")
	}
	if err := validateDir(s.cliDir); err != nil {
		return s, err
	}

	var err error
	if s.backend, err = codegen.ParseBackend(pick(cmd, "backend", generateFlags.backend, cfg.Generate.Backend)); err != nil {
		return s, err
	}
	if s.target == "" {
		s.target = codegen.DefaultTarget
	}
	return s, nil
}

func runGenerateCode(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	_, err := generatePass(cmd.Context(), cmd, generateResolved)
	return err
}

// generatePass runs the staleness check and, when a build is needed, the
// generator. It reports whether anything was generated.
func generatePass(ctx context.Context, cmd *cobra.Command, s generateSettings) (bool, error) {
	trace := tracer(cmd, s.debug)
	trace("Includes: %s", s.includes)
	trace("Schema file: %s", s.schemaFile)
	trace("Output file: %s", s.outputFile)
	trace("CLI directory: %s", s.cliDir)
	trace("Backend: %s", s.backend)

	checker := incremental.NewChecker(incremental.WithTracer(trace))
	decision := checker.Check(incremental.Request{
		Includes:   s.includes,
		SchemaFile: s.schemaFile,
		OutputFile: s.outputFile,
		Force:      s.force,
	})
	log.Debug("staleness decision", "build", decision.Build, "reason", decision.Reason.String(), "error", decision.Err)
	if !decision.Build {
		log.Info("output is up to date", "output", s.outputFile)
		return false, nil
	}

	if s.validate {
		if err := validateOperations(cmd, s.schemaFile, s.includes); err != nil {
			return false, err
		}
	}

	gen := newGenerator(s.backend, newRunner(cmd, s.cliDir, s.binary))
	files, err := gen.Generate(ctx, s.request())
	if err != nil {
		return false, fmt.Errorf("generate %s: %w", s.outputFile, err)
	}
	for _, f := range files {
		trace("Wrote %s", f)
	}
	log.Info("code generated", "output", s.outputFile, "files", len(files), "backend", s.backend)
	return true, nil
}

// validateOperations prints every problem to stderr and fails when any exist.
func validateOperations(cmd *cobra.Command, schemaFile, includes string) error {
	result, err := gqlcheck.CheckGlob(schemaFile, includes)
	if err != nil {
		return fmt.Errorf("validate operations: %w", err)
	}
	for _, p := range result.Problems {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p.String())
	}
	if !result.OK() {
		return fmt.Errorf("%d validation problem(s) in %d file(s)", len(result.Problems), len(result.Files))
	}
	log.Debug("operations valid", "files", len(result.Files), "operations", len(result.Operations))
	return nil
}
