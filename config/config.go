// Package config loads pipeline definition files and reads runtime settings
// from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/initializ/envpipe/types"
)

// Load reads a pipeline definition, choosing the decoder by file extension:
// .yaml, .yml and .json are decoded as YAML, .toml as TOML.
func Load(path string) (*types.PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a pipeline definition. ext is a file extension with or
// without the leading dot; empty means YAML.
func Parse(data []byte, ext string) (*types.PipelineConfig, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "", "yaml", "yml", "json":
		return types.ParsePipelineConfig(data)
	case "toml":
		return types.ParsePipelineConfigTOML(data)
	default:
		return nil, fmt.Errorf("unsupported definition format %q (known: yaml, yml, json, toml)", ext)
	}
}
