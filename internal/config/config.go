// Package config loads triage settings from config.yaml and TRIAGE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// EnvPrefix prefixes every environment override, e.g. TRIAGE_STORE_DRIVER.
	EnvPrefix = "TRIAGE"

	// DirEnv overrides the config directory.
	DirEnv = "TRIAGE_CONFIG_DIR"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full triage configuration.
type Config struct {
	Dir string `mapstructure:"-" yaml:"-"`

	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Scorer ScorerConfig `mapstructure:"scorer" yaml:"scorer"`
	Gate   GateConfig   `mapstructure:"gate" yaml:"gate"`
	Export ExportConfig `mapstructure:"export" yaml:"export"`
}

// StoreConfig selects and tunes the record store.
type StoreConfig struct {
	Driver      string        `mapstructure:"driver" yaml:"driver"`
	SQLitePath  string        `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN string        `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ScorerConfig configures the scoring client and the bundled scoring server.
type ScorerConfig struct {
	// URL of the scoring service. Empty scores in process.
	URL            string        `mapstructure:"url" yaml:"url"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Listen         string        `mapstructure:"listen" yaml:"listen"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// GateConfig holds the staff passphrase.
type GateConfig struct {
	Passphrase string `mapstructure:"passphrase" yaml:"passphrase"`
}

// ExportConfig configures snapshot exports.
type ExportConfig struct {
	Target string   `mapstructure:"target" yaml:"target"`
	S3     S3Config `mapstructure:"s3" yaml:"s3"`
}

// S3Config configures the S3 export sink.
type S3Config struct {
	Region          string `mapstructure:"region" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style" yaml:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver:  DriverSQLite,
			Timeout: 5 * time.Second,
		},
		Scorer: ScorerConfig{
			Timeout:        10 * time.Second,
			Listen:         "127.0.0.1:8000",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Export: ExportConfig{
			Target: "triage-export.json",
			S3:     S3Config{Region: "us-east-1"},
		},
	}
}

// DefaultDir returns $TRIAGE_CONFIG_DIR, or ~/.triage.
func DefaultDir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".triage"), nil
}

// Load reads config.yaml from dir and applies environment overrides.
// A missing config.yaml is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = filepath.Join(dir, "triage.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.postgres_dsn", d.Store.PostgresDSN)
	v.SetDefault("store.timeout", d.Store.Timeout)
	v.SetDefault("scorer.url", d.Scorer.URL)
	v.SetDefault("scorer.timeout", d.Scorer.Timeout)
	v.SetDefault("scorer.listen", d.Scorer.Listen)
	v.SetDefault("scorer.allowed_origins", d.Scorer.AllowedOrigins)
	v.SetDefault("gate.passphrase", d.Gate.Passphrase)
	v.SetDefault("export.target", d.Export.Target)
	v.SetDefault("export.s3.region", d.Export.S3.Region)
	v.SetDefault("export.s3.endpoint", d.Export.S3.Endpoint)
	v.SetDefault("export.s3.path_style", d.Export.S3.PathStyle)
	v.SetDefault("export.s3.access_key_id", d.Export.S3.AccessKeyID)
	v.SetDefault("export.s3.secret_access_key", d.Export.S3.SecretAccessKey)
}

// Validate checks that the settings are usable together.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (want sqlite, postgres or memory)", c.Store.Driver)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive, got %s", c.Store.Timeout)
	}
	if c.Scorer.Timeout <= 0 {
		return fmt.Errorf("scorer.timeout must be positive, got %s", c.Scorer.Timeout)
	}
	return nil
}

const defaultHeader = `# triage configuration
# Every key can be overridden with a TRIAGE_ environment variable,
# e.g. TRIAGE_GATE_PASSPHRASE or TRIAGE_STORE_DRIVER.
`

// DefaultYAML renders the default configuration as a commented config.yaml.
func DefaultYAML() ([]byte, error) {
	body, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("render default config: %w", err)
	}
	return append([]byte(defaultHeader), body...), nil
}
