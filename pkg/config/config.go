// Package config provides layered configuration for codegen.
// Layers, lowest precedence first:
//  1. Built-in defaults
//  2. Global user config ($XDG_CONFIG_HOME/codegen/config.toml)
//  3. Project config (.codegen/config.toml, codegen.toml, codegen.yaml)
//  4. An explicit file passed with --config
//  5. Environment variables (CODEGEN_*)
//  6. CLI flags that were set on the command line
package config

import (
	"maps"
	"time"
)

// Config is the complete codegen configuration.
type Config struct {
	Toolchain ToolchainConfig `toml:"toolchain" yaml:"toolchain"`
	Schema    SchemaConfig    `toml:"schema" yaml:"schema"`
	Generate  GenerateConfig  `toml:"generate" yaml:"generate"`
	Watch     WatchConfig     `toml:"watch" yaml:"watch"`
	Log       LogConfig       `toml:"log" yaml:"log"`

	// Sources lists the files that contributed, in merge order.
	Sources []string `toml:"-" yaml:"-"`
}

// ToolchainConfig locates the external code generation CLI used by the
// exec backends.
type ToolchainConfig struct {
	// CLIDir is the folder holding (or receiving) the toolchain.
	CLIDir string `toml:"cli_dir" yaml:"cli_dir"`

	// Binary is the executable name looked up inside CLIDir and on PATH.
	Binary string `toml:"binary" yaml:"binary"`
}

// SchemaConfig holds download-schema settings.
type SchemaConfig struct {
	Endpoint  string            `toml:"endpoint" yaml:"endpoint"`
	OutputDir string            `toml:"output_dir" yaml:"output_dir"`
	Formats   []string          `toml:"formats" yaml:"formats"`
	Name      string            `toml:"name" yaml:"name"`
	Headers   map[string]string `toml:"headers" yaml:"headers"`
	Timeout   time.Duration     `toml:"timeout" yaml:"timeout"`

	// Backend is "library" (in-process) or "exec" (external toolchain).
	Backend string `toml:"backend" yaml:"backend"`
}

// GenerateConfig holds generate-code settings.
type GenerateConfig struct {
	Includes   string `toml:"includes" yaml:"includes"`
	SchemaFile string `toml:"schema_file" yaml:"schema_file"`
	OutputFile string `toml:"output_file" yaml:"output_file"`

	// Backend is "genqlient" (in-process) or "exec" (external toolchain).
	Backend string `toml:"backend" yaml:"backend"`

	// Package names the generated Go package (genqlient backend). Empty
	// derives it from the output directory.
	Package string `toml:"package" yaml:"package"`

	// Target is the language passed to the external toolchain.
	Target string `toml:"target" yaml:"target"`

	// Validate checks operations against the schema before generating.
	Validate *bool `toml:"validate" yaml:"validate"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `toml:"debounce" yaml:"debounce"`
	JSON     *bool         `toml:"json" yaml:"json"`
	NoColor  *bool         `toml:"no_color" yaml:"no_color"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Verbosity *int   `toml:"verbosity" yaml:"verbosity"`
	Format    string `toml:"format" yaml:"format"`
}

// NewConfig returns a Config populated with built-in defaults.
func NewConfig() *Config {
	falseVal := false
	return &Config{
		Toolchain: ToolchainConfig{
			Binary: "apollo",
		},
		Schema: SchemaConfig{
			Formats: []string{"sdl"},
			Name:    "schema",
			Timeout: 30 * time.Second,
			Backend: "library",
		},
		Generate: GenerateConfig{
			Backend:  "genqlient",
			Target:   "swift",
			Validate: &falseVal,
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
			JSON:     &falseVal,
			NoColor:  &falseVal,
		},
		Log: LogConfig{
			Format: "text",
		},
	}
}

// ValidateEnabled reports whether generate-code should validate first.
func (c *Config) ValidateEnabled() bool {
	return c.Generate.Validate != nil && *c.Generate.Validate
}

// Merge merges another config into this one (other takes precedence).
// Headers merge key by key; every other field is replaced when set.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	setString(&c.Toolchain.CLIDir, other.Toolchain.CLIDir)
	setString(&c.Toolchain.Binary, other.Toolchain.Binary)

	setString(&c.Schema.Endpoint, other.Schema.Endpoint)
	setString(&c.Schema.OutputDir, other.Schema.OutputDir)
	if len(other.Schema.Formats) > 0 {
		c.Schema.Formats = other.Schema.Formats
	}
	setString(&c.Schema.Name, other.Schema.Name)
	if len(other.Schema.Headers) > 0 {
		if c.Schema.Headers == nil {
			c.Schema.Headers = make(map[string]string, len(other.Schema.Headers))
		}
		maps.Copy(c.Schema.Headers, other.Schema.Headers)
	}
	if other.Schema.Timeout > 0 {
		c.Schema.Timeout = other.Schema.Timeout
	}
	setString(&c.Schema.Backend, other.Schema.Backend)

	setString(&c.Generate.Includes, other.Generate.Includes)
	setString(&c.Generate.SchemaFile, other.Generate.SchemaFile)
	setString(&c.Generate.OutputFile, other.Generate.OutputFile)
	setString(&c.Generate.Backend, other.Generate.Backend)
	setString(&c.Generate.Package, other.Generate.Package)
	setString(&c.Generate.Target, other.Generate.Target)
	if other.Generate.Validate != nil {
		c.Generate.Validate = other.Generate.Validate
	}

	if other.Watch.Debounce > 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.JSON != nil {
		c.Watch.JSON = other.Watch.JSON
	}
	if other.Watch.NoColor != nil {
		c.Watch.NoColor = other.Watch.NoColor
	}

	if other.Log.Verbosity != nil {
		c.Log.Verbosity = other.Log.Verbosity
	}
	setString(&c.Log.Format, other.Log.Format)

	c.Sources = append(c.Sources, other.Sources...)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
