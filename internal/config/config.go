package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the orchestrator settings loaded from refit.yaml.
// Flags override file values; the cobra layer performs that merge.
type Config struct {
	// RunsDir is the root directory holding one subdirectory per run.
	RunsDir string `yaml:"runs_dir"`

	// Precedence selects the validation policy for explicit phase starts:
	// "strict" re-validates that prior phases are approved or skipped,
	// "trust" accepts the caller's claim.
	Precedence string `yaml:"precedence"`

	// PhasesFile points at the phase executor registry.
	PhasesFile string `yaml:"phases_file"`

	// RedisAddr, when set, selects the Redis storage backend and enables
	// the per-run advisory lock.
	RedisAddr string `yaml:"redis_addr"`

	// Serve configures the read-only inspection API.
	Serve ServeConfig `yaml:"serve"`

	// Artifacts configures at-rest treatment of phase artifacts.
	Artifacts ArtifactsConfig `yaml:"artifacts"`
}

// ServeConfig holds settings for the refit serve command.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// ArtifactsConfig enables redaction and encryption of stored artifacts.
type ArtifactsConfig struct {
	// EncryptionKey is a base64-encoded 32-byte AES-256 key. Empty disables
	// encryption.
	EncryptionKey string `yaml:"encryption_key"`

	// FallbackKeys hold previously active keys so old artifacts stay readable
	// during rotation.
	FallbackKeys []string `yaml:"fallback_keys"`

	// Redact masks credential-shaped strings in artifact content before it
	// is written.
	Redact bool `yaml:"redact"`

	// RedactPatterns override the built-in credential patterns.
	RedactPatterns []string `yaml:"redact_patterns"`
}

// DecodeKey returns the decoded active encryption key, or nil when unset.
func (a ArtifactsConfig) DecodeKey() ([]byte, error) {
	return decodeKey(a.EncryptionKey)
}

// DecodeFallbackKeys returns the decoded rotation keys.
func (a ArtifactsConfig) DecodeFallbackKeys() ([][]byte, error) {
	keys := make([][]byte, 0, len(a.FallbackKeys))
	for _, enc := range a.FallbackKeys {
		key, err := decodeKey(enc)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func decodeKey(enc string) ([]byte, error) {
	if enc == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RunsDir:    filepath.Join(".refit", "runs"),
		Precedence: "strict",
		PhasesFile: "phases.yaml",
		Serve:      ServeConfig{Addr: ":8137"},
	}
}

// Load reads the config file at path, layered over the defaults.
// A missing file is not an error: defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the orchestrator cannot honor.
func (c Config) Validate() error {
	if c.Precedence != "strict" && c.Precedence != "trust" {
		return fmt.Errorf("invalid precedence policy %q (want strict or trust)", c.Precedence)
	}
	if _, err := c.Artifacts.DecodeKey(); err != nil {
		return err
	}
	if _, err := c.Artifacts.DecodeFallbackKeys(); err != nil {
		return err
	}
	return nil
}
