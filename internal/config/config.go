// Package config loads the dictbot configuration: the shared core sections
// plus database, dictionary, sessions and vocabulary.
package config

import (
	"fmt"

	coreconfig "github.com/m3rciful/dictbot/core/config"
	coredatabase "github.com/m3rciful/dictbot/core/database"
	"github.com/m3rciful/dictbot/internal/dictionary"
	"github.com/m3rciful/dictbot/internal/session"
	"github.com/m3rciful/dictbot/internal/vocabulary"
)

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database   coredatabase.Config `yaml:"database"`
	Dictionary dictionary.Config   `yaml:"dictionary"`
	Sessions   session.Config      `yaml:"sessions"`
	Vocabulary vocabulary.Config   `yaml:"vocabulary"`
}

// CoreConfig exposes the embedded core section to the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads path, overlays the environment and validates every section.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates each section and fills its defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Dictionary.Normalize(); err != nil {
		return err
	}
	if err := c.Sessions.Normalize(); err != nil {
		return err
	}
	return nil
}
