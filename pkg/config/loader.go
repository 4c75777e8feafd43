package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/codegen/internal/log"
)

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".codegen"

// GlobalConfigDir is the name of the global config directory inside the
// user's config directory.
const GlobalConfigDir = "codegen"

// ProjectFileNames are the project-level config files, in lookup order.
var ProjectFileNames = []string{"codegen.toml", "codegen.yaml", "codegen.yml"}

// workspaceMarkers stop the upward search for project config.
var workspaceMarkers = []string{".git", "go.mod", "Package.swift"}

// Load loads every layer starting from the working directory. explicit, when
// non-empty, is a file passed with --config; it must exist and parse.
// CLI flags are applied by the caller after Load returns.
func Load(explicit string) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadFrom(wd, explicit)
}

// LoadFrom loads every layer, searching for project config from dir upward.
func LoadFrom(dir, explicit string) (*Config, error) {
	cfg := NewConfig()

	if globalCfg := loadOptional(GetGlobalConfigPath()); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}

	if explicit != "" {
		fileCfg, err := LoadFile(explicit)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
	}

	applyEnvironmentVariables(cfg)
	return cfg, nil
}

// LoadFile decodes a single config file. Files ending in .yaml or .yml are
// YAML; anything else is TOML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("parse %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	cfg.Sources = []string{path}
	return &cfg, nil
}

// loadOptional loads a discovered file. A missing file is silent; a broken
// one is reported and skipped.
func loadOptional(path string) *Config {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		log.Warn("ignoring config file", "path", path, "error", err)
		return nil
	}
	log.Debug("loaded config", "path", path)
	return cfg
}

// loadProjectConfigFrom returns the first project config found walking up
// from dir, stopping at the workspace root.
func loadProjectConfigFrom(dir string) *Config {
	current := dir
	for {
		for _, path := range GetProjectConfigPaths(current) {
			if cfg := loadOptional(path); cfg != nil {
				return cfg
			}
		}

		if isWorkspaceRoot(current) {
			return nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil
		}
		current = parent
	}
}

// isWorkspaceRoot checks for a VCS or package manifest marker.
func isWorkspaceRoot(dir string) bool {
	for _, marker := range workspaceMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// applyEnvironmentVariables applies CODEGEN_* environment variables.
func applyEnvironmentVariables(cfg *Config) {
	applyStringEnv("CODEGEN_CLI_DIR", &cfg.Toolchain.CLIDir)
	applyStringEnv("CODEGEN_BINARY", &cfg.Toolchain.Binary)

	applyStringEnv("CODEGEN_ENDPOINT", &cfg.Schema.Endpoint)
	applyStringEnv("CODEGEN_OUTPUT_DIR", &cfg.Schema.OutputDir)
	if v := os.Getenv("CODEGEN_FORMATS"); v != "" {
		cfg.Schema.Formats = splitAndTrim(v)
	}
	applyStringEnv("CODEGEN_SCHEMA_NAME", &cfg.Schema.Name)
	applyStringEnv("CODEGEN_SCHEMA_BACKEND", &cfg.Schema.Backend)
	applyDurationEnv("CODEGEN_TIMEOUT", &cfg.Schema.Timeout)

	applyStringEnv("CODEGEN_INCLUDES", &cfg.Generate.Includes)
	applyStringEnv("CODEGEN_SCHEMA_FILE", &cfg.Generate.SchemaFile)
	applyStringEnv("CODEGEN_OUTPUT_FILE", &cfg.Generate.OutputFile)
	applyStringEnv("CODEGEN_GENERATE_BACKEND", &cfg.Generate.Backend)
	applyStringEnv("CODEGEN_PACKAGE", &cfg.Generate.Package)
	applyStringEnv("CODEGEN_TARGET", &cfg.Generate.Target)
	applyBoolEnv("CODEGEN_VALIDATE", &cfg.Generate.Validate)

	applyDurationEnv("CODEGEN_WATCH_DEBOUNCE", &cfg.Watch.Debounce)

	if v := os.Getenv("CODEGEN_VERBOSITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Log.Verbosity = &n
		} else {
			log.Warn("ignoring invalid environment variable", "name", "CODEGEN_VERBOSITY", "value", v)
		}
	}
	applyStringEnv("CODEGEN_LOG_FORMAT", &cfg.Log.Format)
}

func applyStringEnv(envVar string, target *string) {
	if v := os.Getenv(envVar); v != "" {
		*target = v
	}
}

func applyDurationEnv(envVar string, target *time.Duration) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn("ignoring invalid environment variable", "name", envVar, "value", v)
		return
	}
	*target = d
}

// applyBoolEnv applies a boolean environment variable to a pointer.
func applyBoolEnv(envVar string, target **bool) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		t := true
		*target = &t
	case "false", "0", "no":
		f := false
		*target = &f
	default:
		log.Warn("ignoring invalid environment variable", "name", envVar, "value", v)
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns candidate project config paths in dir.
func GetProjectConfigPaths(dir string) []string {
	paths := []string{filepath.Join(dir, ConfigDirName, "config.toml")}
	for _, name := range ProjectFileNames {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths
}
