package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Loader loads configuration using Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with defaults and environment binding set up.
func NewLoader() *Loader {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("documents.state", defaults.Documents.State)
	v.SetDefault("documents.requirements", defaults.Documents.Requirements)
	v.SetDefault("documents.approval_log", defaults.Documents.ApprovalLog)
	v.SetDefault("deliverables", defaults.Deliverables)
	v.SetDefault("thresholds.min_change_lines", defaults.Thresholds.MinChangeLines)
	v.SetDefault("thresholds.coverage_floor", defaults.Thresholds.CoverageFloor)
	v.SetDefault("git.remote", defaults.Git.Remote)
	v.SetDefault("tests.command", defaults.Tests.Command)
	v.SetDefault("tests.dir", defaults.Tests.Dir)

	v.SetEnvPrefix("STAGEGATE")
	v.AutomaticEnv()

	// Commonly overridden settings get explicit short env names.
	v.BindEnv("documents.state", "STAGEGATE_STATE_PATH")
	v.BindEnv("documents.requirements", "STAGEGATE_REQUIREMENTS_PATH")
	v.BindEnv("git.remote", "STAGEGATE_GIT_REMOTE")

	return &Loader{v: v}
}

// Load reads configuration from the standard locations.
//
// It consults STAGEGATE_CONFIG_PATH first, then ./stagegate.yaml. A missing
// config file is not an error; defaults and environment overrides apply.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv("STAGEGATE_CONFIG_PATH"); path != "" {
		return l.LoadFromFile(path)
	}

	l.v.SetConfigName("stagegate")
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(".")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadFromFile reads configuration from an explicit file path.
// Unlike [Loader.Load], a missing file here is an error: the operator asked
// for that specific file.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
