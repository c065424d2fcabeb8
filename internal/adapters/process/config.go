package process

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// PhaseConfig declares the command that executes one pipeline phase.
// Only phases listed in the registry may execute: a Strict Registry pattern
// (allow-listing), no ad-hoc commands.
type PhaseConfig struct {
	Phase       string            `yaml:"phase" json:"phase"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`

	// Settings holds loosely-typed per-phase tuning, decoded on demand.
	Settings map[string]any `yaml:"settings" json:"settings"`
}

// PhaseSettings is the typed form of PhaseConfig.Settings.
type PhaseSettings struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	WorkDir        string `mapstructure:"work_dir"`
}

// DecodeSettings maps the raw settings block onto PhaseSettings.
func (c PhaseConfig) DecodeSettings() (PhaseSettings, error) {
	var s PhaseSettings
	if c.Settings == nil {
		return s, nil
	}
	if err := mapstructure.Decode(c.Settings, &s); err != nil {
		return s, fmt.Errorf("failed to decode settings for phase %q: %w", c.Phase, err)
	}
	return s, nil
}

// Timeout returns the configured execution timeout, or 0 for none.
func (s PhaseSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ConfigFile represents the structure of phases.yaml.
type ConfigFile struct {
	Phases []PhaseConfig `yaml:"phases" json:"phases"`
}

// LoadRegistry reads a phase registry file and returns a map of phase names
// to configs. A missing file yields an empty registry; every execution
// attempt then fails with a clear "not registered" error.
func LoadRegistry(path string) (map[string]PhaseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]PhaseConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read phase registry: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse phase registry: %w", err)
	}

	registry := make(map[string]PhaseConfig)
	for _, phase := range cfg.Phases {
		if phase.Phase == "" {
			continue
		}
		registry[phase.Phase] = phase
	}
	return registry, nil
}
