package cli

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/schema"
	"github.com/albertocavalcante/codegen/internal/log"
)

var downloadFlags struct {
	endpoint   string
	outputDir  string
	cliDir     string
	formats    []string
	headers    []string
	timeout    time.Duration
	schemaName string
	backend    string
	debug      bool
}

// downloadSettings are the download-schema inputs after merging config and
// flags.
type downloadSettings struct {
	base    schema.Request
	formats []schema.Format
	backend string
	cliDir  string
	binary  string
	debug   bool
}

var downloadResolved downloadSettings

var downloadSchemaCmd = &cobra.Command{
	Use:   "download-schema",
	Short: "Download a GraphQL schema from an endpoint",
	Long: `Downloads the schema of a GraphQL endpoint into an output directory,
once per requested format:

  sdl   <output-dir>/schema.graphqls  (default)
  json  <output-dir>/schema.json      (introspection result)

Formats are fetched in order and the first failure stops the rest. A failed
fetch never replaces a schema that is already on disk.`,
	Example: `  codegen download-schema --endpoint https://api.example.com/graphql \
    --output-dir Sources/API --cli-dir .codegen/cli --formats sdl,json`,
	Args:    cobra.NoArgs,
	PreRunE: prepareDownload,
	RunE:    runDownloadSchema,
}

func init() {
	flags := downloadSchemaCmd.Flags()
	flags.Var(newURLValue(&downloadFlags.endpoint), "endpoint", "GraphQL endpoint URL (http or https)")
	flags.Var(newDirValue(&downloadFlags.outputDir), "output-dir", "Directory that receives the schema files")
	flags.Var(newDirValue(&downloadFlags.cliDir), "cli-dir", "Directory holding the codegen toolchain")
	flags.StringSliceVar(&downloadFlags.formats, "formats", nil, "Schema formats to download: sdl, json (default sdl)")
	flags.StringArrayVar(&downloadFlags.headers, "header", nil, `HTTP header sent with the request, as "Key: Value" (repeatable)`)
	flags.DurationVar(&downloadFlags.timeout, "timeout", schema.DefaultTimeout, "Timeout for each download")
	flags.StringVar(&downloadFlags.schemaName, "schema-name", schema.DefaultName, "Base name of the schema files")
	flags.StringVar(&downloadFlags.backend, "backend", schema.BackendLibrary, "Download backend: library or exec")
	flags.BoolVar(&downloadFlags.debug, "debug", false, "Print resolved arguments to stdout")

	rootCmd.AddCommand(downloadSchemaCmd)
}

func prepareDownload(cmd *cobra.Command, _ []string) error {
	s, err := resolveDownload(cmd)
	if err != nil {
		return err
	}
	downloadResolved = s
	if s.debug {
		log.RaiseVerbosity(log.VerbosityDebug)
	}
	return nil
}

func resolveDownload(cmd *cobra.Command) (downloadSettings, error) {
	s := downloadSettings{
		base: schema.Request{
			Endpoint:  pick(cmd, "endpoint", downloadFlags.endpoint, cfg.Schema.Endpoint),
			OutputDir: pick(cmd, "output-dir", downloadFlags.outputDir, cfg.Schema.OutputDir),
			Name:      pick(cmd, "schema-name", downloadFlags.schemaName, cfg.Schema.Name),
			Timeout:   pick(cmd, "timeout", downloadFlags.timeout, cfg.Schema.Timeout),
		},
		cliDir: pick(cmd, "cli-dir", downloadFlags.cliDir, cfg.Toolchain.CLIDir),
		binary: cfg.Toolchain.Binary,
		debug:  downloadFlags.debug,
	}

	if s.base.Endpoint == "" {
		return s, errors.New("--endpoint is required")
	}
	if err := validateURL(s.base.Endpoint); err != nil {
		return s, err
	}
	if s.base.OutputDir == "" {
		return s, errors.New("--output-dir is required")
	}
	if err := validateDir(s.base.OutputDir); err != nil {
		return s, err
	}
	if s.cliDir == "" {
		return s, errors.New("--cli-dir is required")
	}
	if err := validateDir(s.cliDir); err != nil {
		return s, err
	}
	if s.base.Name == "" || strings.ContainsAny(s.base.Name, `/\`) {
		return s, errors.New("--schema-name must be a plain file name")
	}

	formats, err := schema.ParseFormats(pick(cmd, "formats", downloadFlags.formats, cfg.Schema.Formats))
	if err != nil {
		return s, err
	}
	if len(formats) == 0 {
		formats = []schema.Format{schema.FormatSDL}
	}
	s.formats = formats

	if s.backend, err = schema.ParseBackend(pick(cmd, "backend", downloadFlags.backend, cfg.Schema.Backend)); err != nil {
		return s, err
	}

	headers := make(http.Header)
	for k, v := range cfg.Schema.Headers {
		headers.Set(k, v)
	}
	flagHeaders, err := schema.ParseHeaders(downloadFlags.headers)
	if err != nil {
		return s, err
	}
	for k, v := range flagHeaders {
		headers[k] = v
	}
	s.base.Headers = headers

	return s, nil
}

func runDownloadSchema(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	s := downloadResolved

	trace := tracer(cmd, s.debug)
	trace("Endpoint: %s", s.base.Endpoint)
	trace("Output directory: %s", s.base.OutputDir)
	trace("Formats: %s", joinFormats(s.formats))
	trace("CLI directory: %s", s.cliDir)
	trace("Backend: %s", s.backend)

	log.Info("downloading schema", "endpoint", s.base.Endpoint, "formats", joinFormats(s.formats), "backend", s.backend)

	fetcher := newFetcher(s.backend, newRunner(cmd, s.cliDir, s.binary))
	return schema.DownloadAll(cmd.Context(), fetcher, s.base, s.formats, func(format schema.Format, path string) {
		trace("Downloaded %s schema to %s", format, path)
		log.Info("schema downloaded", "format", format, "path", path)
	})
}

func joinFormats(formats []schema.Format) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
