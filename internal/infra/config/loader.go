// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/musher-dev/musher/internal/domain"
	"github.com/musher-dev/musher/internal/trigger"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from the state directory: settings from
// config.toml, triggers from triggers.yaml.
type Loader struct {
	musherDir string
}

// NewLoader creates a new Loader.
func NewLoader(musherDir string) *Loader {
	return &Loader{musherDir: musherDir}
}

// fileConfig is the TOML shape of config.toml. Durations are strings
// ("5s", "1h") parsed with time.ParseDuration.
type fileConfig struct {
	Loop struct {
		MaxIterations           int    `toml:"max_iterations"`
		PollInterval            string `toml:"poll_interval"`
		IterationDelay          string `toml:"iteration_delay"`
		ConsecutiveFailureLimit int    `toml:"consecutive_failure_limit"`
	} `toml:"loop"`
	Agent struct {
		Command string   `toml:"command"`
		Args    []string `toml:"args"`
		Timeout string   `toml:"timeout"`
	} `toml:"agent"`
	Git struct {
		IntegrationBranch string `toml:"integration_branch"`
	} `toml:"git"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Load returns the configuration with defaults applied under any
// missing keys. A missing config file yields pure defaults.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()

	data, err := os.ReadFile(domain.ConfigPath(l.musherDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if fc.Loop.MaxIterations > 0 {
		cfg.Loop.MaxIterations = fc.Loop.MaxIterations
	}
	if fc.Loop.ConsecutiveFailureLimit > 0 {
		cfg.Loop.ConsecutiveFailureLimit = fc.Loop.ConsecutiveFailureLimit
	}
	if err := overrideDuration(&cfg.Loop.PollInterval, fc.Loop.PollInterval, "loop.poll_interval"); err != nil {
		return nil, err
	}
	if err := overrideDuration(&cfg.Loop.IterationDelay, fc.Loop.IterationDelay, "loop.iteration_delay"); err != nil {
		return nil, err
	}

	if fc.Agent.Command != "" {
		cfg.Agent.Command = fc.Agent.Command
	}
	if fc.Agent.Args != nil {
		cfg.Agent.Args = fc.Agent.Args
	}
	if err := overrideDuration(&cfg.Agent.Timeout, fc.Agent.Timeout, "agent.timeout"); err != nil {
		return nil, err
	}

	if fc.Git.IntegrationBranch != "" {
		cfg.Git.IntegrationBranch = fc.Git.IntegrationBranch
	}
	if fc.Log.Level != "" {
		cfg.Log.Level = fc.Log.Level
	}

	return cfg, nil
}

func overrideDuration(dst *time.Duration, raw, key string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

// triggersFile is the YAML shape of triggers.yaml. Sequence order is
// priority order.
type triggersFile struct {
	Triggers []trigger.Spec `yaml:"triggers"`
}

// LoadTriggers reads the ordered trigger list. A missing file means no
// triggers: base instructions only.
func (l *Loader) LoadTriggers() ([]trigger.Spec, error) {
	data, err := os.ReadFile(domain.TriggersPath(l.musherDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read triggers: %w", err)
	}

	var tf triggersFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse triggers: %w", err)
	}
	return tf.Triggers, nil
}
