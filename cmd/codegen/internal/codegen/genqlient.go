package codegen

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/Khan/genqlient/generate"

	"github.com/albertocavalcante/codegen/internal/fsutil"
	"github.com/albertocavalcante/codegen/internal/log"
)

// Genqlient generates a typed Go client with github.com/Khan/genqlient.
type Genqlient struct{}

// NewGenqlient creates a Genqlient generator.
func NewGenqlient() *Genqlient {
	return &Genqlient{}
}

// Config builds the genqlient configuration for req. Relative paths are
// resolved against the current directory.
func (g *Genqlient) Config(req Request) (*generate.Config, error) {
	baseDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg := &generate.Config{
		Schema:     generate.StringList{req.SchemaFile},
		Operations: generate.StringList{req.Includes},
		Generated:  req.OutputFile,
		Package:    req.Package,
	}
	if err := cfg.ValidateAndFillDefaults(baseDir); err != nil {
		return nil, fmt.Errorf("invalid genqlient config: %w", err)
	}
	return cfg, nil
}

// Generate implements Generator.
func (g *Genqlient) Generate(ctx context.Context, req Request) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := g.Config(req)
	if err != nil {
		return nil, err
	}

	files, err := generate.Generate(cfg)
	if err != nil {
		return nil, err
	}

	logger := log.Component("codegen")
	written := make([]string, 0, len(files))
	for _, path := range slices.Sorted(maps.Keys(files)) {
		if err := fsutil.WriteFileAtomic(path, files[path], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		logger.Info("generated", "path", path, "bytes", len(files[path]))
		written = append(written, path)
	}
	return written, nil
}
