package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader provides configuration loading capabilities. It abstracts the source
// of configuration to allow for different implementations like files,
// environment variables, or remote configuration services.
type Loader interface {
	// Load retrieves and parses the configuration from the underlying source.
	Load(ctx context.Context) (*Config, error)
}

// FileLoader loads configuration from a YAML file on disk. Keys absent from
// the file keep their default values.
type FileLoader struct {
	path string
}

// NewFileLoader creates a FileLoader reading from the given path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and parses the configuration file, layering it over Default.
func (l *FileLoader) Load(ctx context.Context) (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
