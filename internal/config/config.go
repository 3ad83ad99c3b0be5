package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all fastpath configuration
type Config struct {
	// HTTP surface
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Patch      PatchConfig      `yaml:"patch"`
	Validation ValidationConfig `yaml:"validation"`
	Auth       AuthConfig       `yaml:"auth"`
}

// PatchConfig bounds the patch engine
type PatchConfig struct {
	// MaxSiteBytes caps the encoded length of a patch site. The critical
	// phase duration bound is enforced through this cap, so raising it
	// loosens the phase ceiling guarantee.
	MaxSiteBytes int `yaml:"max_site_bytes"`

	// PhaseCeilingUS is the maximum permitted critical-phase duration in
	// microseconds. Commits that overrun it are counted as violations.
	PhaseCeilingUS int `yaml:"phase_ceiling_us"`
}

// ValidationConfig tunes the measurement harness
type ValidationConfig struct {
	Iterations            int     `yaml:"iterations"`
	OutlierFraction       float64 `yaml:"outlier_fraction"`
	MinImprovementPercent float64 `yaml:"min_improvement_percent"`
	RequalifyIntervalMins int     `yaml:"requalify_interval_mins"`
}

// AuthConfig configures token issuance
type AuthConfig struct {
	SecretKey       string `yaml:"secret_key"`
	TokenExpiryDays int    `yaml:"token_expiry_days"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Listen:         "localhost:8080",
		AllowedOrigins: nil,

		Patch: PatchConfig{
			MaxSiteBytes:   32,
			PhaseCeilingUS: 100,
		},

		Validation: ValidationConfig{
			Iterations:            1000,
			OutlierFraction:       0.05,
			MinImprovementPercent: 25,
			RequalifyIntervalMins: 10,
		},

		Auth: AuthConfig{
			TokenExpiryDays: 90,
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Patch.MaxSiteBytes <= 0 {
		return fmt.Errorf("patch.max_site_bytes must be positive")
	}
	if c.Patch.PhaseCeilingUS <= 0 {
		return fmt.Errorf("patch.phase_ceiling_us must be positive")
	}
	if c.Validation.OutlierFraction < 0 || c.Validation.OutlierFraction >= 0.5 {
		return fmt.Errorf("validation.outlier_fraction must be in [0, 0.5)")
	}
	if c.Validation.Iterations <= 0 {
		return fmt.Errorf("validation.iterations must be positive")
	}
	return nil
}

// PhaseCeiling returns the critical-phase ceiling as a duration
func (c *Config) PhaseCeiling() time.Duration {
	return time.Duration(c.Patch.PhaseCeilingUS) * time.Microsecond
}

// TokenExpiry returns the auth token lifetime
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.Auth.TokenExpiryDays) * 24 * time.Hour
}

// RequalifyInterval returns how often the background runner re-measures
func (c *Config) RequalifyInterval() time.Duration {
	return time.Duration(c.Validation.RequalifyIntervalMins) * time.Minute
}
