// Package bot assembles the content assistant: configuration, storage,
// workflows, the dialogue engine and the broadcast scheduler, exposed
// through the runner interfaces in core/cmd.
package bot

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/contentbot/core/config"
	coredatabase "github.com/m3rciful/contentbot/core/database"
)

// Config wraps the shared core configuration with the bot's database block.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads the YAML config, applies environment overrides and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if cfg.Database.Host == "" || cfg.Database.Name == "" {
		return nil, fmt.Errorf("database host and name are required")
	}
	return &cfg, nil
}
