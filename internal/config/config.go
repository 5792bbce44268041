package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration
type Config struct {
	Bulbs           BulbsConfig    `yaml:"bulbs"`
	Wiz             WizConfig      `yaml:"wiz"`
	Hue             HueConfig      `yaml:"hue"`
	Presets         PresetsConfig  `yaml:"presets"`
	Database        DatabaseConfig `yaml:"database"`
	Control         ControlConfig  `yaml:"control"`
	Log             LogConfig      `yaml:"log"`
	LightsDisabled  bool           `yaml:"lights_disabled"`  // All light operations become no-ops
	RestoreShow     bool           `yaml:"restore_show"`     // Restore the persisted show on startup
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// BulbsConfig is the bulb-address table. The three canonical groups must all
// be present; empty lists are allowed. Addresses are either WiZ bulb IPs or
// Hue lights in the "hue:<id>" scheme.
type BulbsConfig struct {
	Groups map[string][]string `yaml:"groups"`
}

// WizConfig contains WiZ protocol settings
type WizConfig struct {
	Port         int      `yaml:"port"`           // UDP control port (default: 38899)
	Timeout      Duration `yaml:"timeout"`        // Per-command round-trip timeout
	RateLimitRPS float64  `yaml:"rate_limit_rps"` // Total command rate across all bulbs
}

// HueConfig contains optional Hue bridge settings, required only when the
// bulb table references hue: addresses.
type HueConfig struct {
	Bridge string `yaml:"bridge"`
	Token  string `yaml:"token"`
}

// PresetsConfig points at the directory of named animation presets
type PresetsConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ControlConfig contains control server settings
type ControlConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// The bulb table is the one thing the daemon cannot run without.
	if err := cfg.Bulbs.validate(); err != nil {
		return nil, err
	}

	// WiZ defaults
	if cfg.Wiz.Port == 0 {
		cfg.Wiz.Port = 38899
	}
	if cfg.Wiz.Timeout == 0 {
		cfg.Wiz.Timeout = Duration(2 * time.Second)
	}
	if cfg.Wiz.RateLimitRPS == 0 {
		cfg.Wiz.RateLimitRPS = 50.0
	}

	// Presets default
	if cfg.Presets.Dir == "" {
		cfg.Presets.Dir = "./presets"
	}

	// Database default
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./tabletopd.sqlite"
	}

	// Control server defaults
	if cfg.Control.Host == "" {
		cfg.Control.Host = "0.0.0.0"
	}
	if cfg.Control.Port == 0 {
		cfg.Control.Port = 8787
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	return &cfg, nil
}

// validate checks that all canonical bulb groups are declared. Empty lists
// are fine; a missing key is a configuration error.
func (b *BulbsConfig) validate() error {
	if b.Groups == nil {
		return fmt.Errorf("missing bulbs.groups section: declare backdrop, overhead and battlefield address lists")
	}
	for _, name := range []string{"backdrop", "overhead", "battlefield"} {
		if _, ok := b.Groups[name]; !ok {
			return fmt.Errorf("missing bulb group %q in bulbs.groups", name)
		}
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
