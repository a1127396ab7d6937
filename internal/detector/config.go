package detector

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// defaultConfig is the embedded detector configuration. It mirrors the
// tuning knobs operators most often need without requiring a config file.
const defaultConfig = `
context_window: 50
max_context_length: 200
detectors:
  - ssn
  - credit_card
  - aws_access_key
  - aws_secret_key
  - email
  - phone_us
`

// Config tunes detection behavior. ContextWindow is the number of characters
// captured on each side of a match; MaxContextLength is the hard cap applied
// to the assembled context before the ellipsis marker.
type Config struct {
	ContextWindow    int      `mapstructure:"context_window"`
	MaxContextLength int      `mapstructure:"max_context_length"`
	Detectors        []string `mapstructure:"detectors"`
}

// DefaultConfig hydrates the embedded default configuration.
func DefaultConfig() (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaultConfig)); err != nil {
		return Config{}, fmt.Errorf("failed to read embedded detector config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal detector config: %w", err)
	}

	return cfg, nil
}
