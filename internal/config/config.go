// Package config loads the YAML configuration of the h5features command.
//
// Command-line flags override values read from the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	// Output is the container file to write.
	Output string `yaml:"output" json:"output,omitempty" jsonschema:"description=Container file to write"`

	// Group is the feature group inside the container.
	Group string `yaml:"group" json:"group" jsonschema:"description=Feature group inside the container"`

	// Format is the storage format of new groups: dense or sparse.
	Format string `yaml:"format" json:"format" jsonschema:"enum=dense,enum=sparse,default=dense"`

	// ChunkSize is the memory budget of one write chunk.
	// Format: "81920", "8KiB", "0.1MB"
	ChunkSize string `yaml:"chunk_size" json:"chunk_size" jsonschema:"description=Memory budget of one write chunk (at least 8KiB),default=0.1MB"`

	// Compression configures chunk compression of new groups.
	Compression CompressionConfig `yaml:"compression" json:"compression"`

	// Log configures logging.
	Log LogConfig `yaml:"log" json:"log"`

	// Ingest configures input loading.
	Ingest IngestConfig `yaml:"ingest" json:"ingest"`
}

// CompressionConfig configures chunk compression.
type CompressionConfig struct {
	// Algorithm is the compression algorithm: none, deflate, zstd.
	Algorithm string `yaml:"algorithm" json:"algorithm" jsonschema:"enum=none,enum=deflate,enum=zstd"`

	// Level is the compression level (deflate: 1-9, zstd: 1-22).
	Level int `yaml:"level" json:"level" jsonschema:"minimum=0,maximum=22"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	// JSON switches to JSON log records.
	JSON bool `yaml:"json" json:"json"`
}

// IngestConfig configures input loading.
type IngestConfig struct {
	// Workers is the number of input files loaded in parallel.
	Workers int `yaml:"workers" json:"workers" jsonschema:"minimum=1"`

	// Pattern selects the input files of a watched directory.
	Pattern string `yaml:"pattern" json:"pattern" jsonschema:"default=*.parquet"`
}

// Load loads configuration from a YAML file on top of the defaults.
// It does not validate: callers apply their overrides, then call Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Group:     "features",
		Format:    "dense",
		ChunkSize: "0.1MB",
		Compression: CompressionConfig{
			Algorithm: "none",
		},
		Log: LogConfig{
			Level: "info",
		},
		Ingest: IngestConfig{
			Workers: 4,
			Pattern: "*.parquet",
		},
	}
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&Config{})
	s.Title = "h5features configuration"
	return json.MarshalIndent(s, "", "  ")
}
