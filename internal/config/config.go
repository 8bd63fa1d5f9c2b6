// Package config loads the gateway configuration from YAML, with a
// content hash carried into every audit entry so a decision can always be
// traced to the exact config that produced it.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Env variables honored over the file. Secrets never belong in YAML that
// gets committed; the env override is the supported path.
const (
	EnvSecret      = "WARDEN_SECRET"
	EnvJudgeAPIKey = "GEMINI_API_KEY"
)

// Duration wraps time.Duration so YAML can carry values like "5m" or "10s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// StoreConfig selects the trust store backing.
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite file; empty = in-memory
}

// ClassifierConfig holds parameters for the Tier 2 toxicity endpoint.
type ClassifierConfig struct {
	URL     string   `yaml:"url"`
	Model   string   `yaml:"model"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

// JudgeConfig holds parameters for the Tier 3 adjudicator.
type JudgeConfig struct {
	APIKey  string   `yaml:"api_key"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// ServerConfig holds the HTTP listener parameters.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config holds all configurable gateway parameters.
type Config struct {
	Secret          string           `yaml:"secret"`
	TokenTTL        Duration         `yaml:"token_ttl"`
	Store           StoreConfig      `yaml:"store"`
	Classifier      ClassifierConfig `yaml:"classifier"`
	Judge           JudgeConfig      `yaml:"judge"`
	ReflexPath      string           `yaml:"reflex_path"`
	AuditPath       string           `yaml:"audit_path"`
	CalibrationPath string           `yaml:"calibration_path"`
	EconomyPath     string           `yaml:"economy_path"`
	Server          ServerConfig     `yaml:"server"`
}

// DefaultConfig returns the built-in configuration. All file paths live
// under ~/.warden.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".warden")
	return &Config{
		TokenTTL: Duration(5 * time.Minute),
		Store:    StoreConfig{Path: filepath.Join(base, "trust.db")},
		Classifier: ClassifierConfig{
			Model:   "unitary/toxic-bert",
			Timeout: Duration(10 * time.Second),
		},
		Judge: JudgeConfig{
			Model:   "gemini-2.0-flash",
			Timeout: Duration(4 * time.Second),
		},
		ReflexPath:      filepath.Join(base, "reflex.yaml"),
		AuditPath:       filepath.Join(base, "audit.jsonl"),
		CalibrationPath: filepath.Join(base, "calibration.jsonl"),
		EconomyPath:     filepath.Join(base, "economy.db"),
		Server:          ServerConfig{Addr: ":8787"},
	}
}

// LoadConfig loads configuration from a YAML file.
// Empty path falls back to ~/.warden/warden.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads configuration and returns its SHA-256 hash.
// The hash is computed over the raw YAML bytes on disk.
// When no file exists (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return applyEnv(DefaultConfig()), emptyHash(), nil
		}
		path = filepath.Join(home, ".warden", "warden.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(DefaultConfig()), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	return applyEnv(cfg), hash, nil
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv(EnvSecret); v != "" {
		cfg.Secret = v
	}
	if v := os.Getenv(EnvJudgeAPIKey); v != "" {
		cfg.Judge.APIKey = v
	}
	return cfg
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}

// DefaultConfigYAML returns a commented YAML string for warden init.
func DefaultConfigYAML() string {
	return `# warden gateway configuration
# Generated by: warden init
#
# Scan evaluation order (cannot be changed):
#   1. Harassment lockout (> 90) -> reject
#   2. Karma lockout (< 50) -> reject
#   3. Tier 1 reflex patterns -> reject
#   4. Tier 2 local classifier -> reject or escalate
#   5. Tier 3 judge -> reject or allow (fail-open when unavailable)

# Capability token secret. Prefer the WARDEN_SECRET environment variable;
# leaving both empty generates an ephemeral secret at startup.
secret: ""

# Token lifetime. 0 disables expiry.
token_ttl: 5m

# Trust store. Empty path = in-memory (state lost on restart).
store:
  path: ""

# Tier 2 toxicity classifier endpoint (transformers-style inference API).
classifier:
  url: "http://127.0.0.1:8801/score"
  model: "unitary/toxic-bert"
  timeout: 10s

# Tier 3 adjudicator. Prefer GEMINI_API_KEY over api_key here.
judge:
  model: "gemini-2.0-flash"
  timeout: 4s

# Tier 1 pattern rules. Missing file = built-in defaults.
reflex_path: ""

# Append-only hash-chained decision log.
audit_path: ""

# Telemetry calibration log (every analysis, anomalous or not).
calibration_path: ""

# Obol economy store.
economy_path: ""

server:
  addr: ":8787"
`
}
