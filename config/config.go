// Package config loads server configuration from a YAML file and STRIPELOG_*
// environment variables.
package config

import (
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "STRIPELOG"

type Config struct {
	// Listen is the gRPC listen address.
	Listen string `mapstructure:"listen"`

	// MaxMessageSize bounds gRPC messages, e.g. "16MiB".
	MaxMessageSize string `mapstructure:"max_message_size"`

	Backend BackendConfig `mapstructure:"backend"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type BackendConfig struct {
	// Type is "memory" or "badger".
	Type       string `mapstructure:"type"`
	Dir        string `mapstructure:"dir"`
	ChunkSize  string `mapstructure:"chunk_size"`
	SyncWrites bool   `mapstructure:"sync_writes"`

	// MaxObjectSize caps every storage object, e.g. "1GiB". Writes ending
	// past it fail.
	MaxObjectSize string `mapstructure:"max_object_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":50051")
	v.SetDefault("max_message_size", "16MiB")
	v.SetDefault("backend.type", "memory")
	v.SetDefault("backend.dir", "")
	v.SetDefault("backend.chunk_size", "64KiB")
	v.SetDefault("backend.sync_writes", false)
	v.SetDefault("backend.max_object_size", "1GiB")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9090")
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration. Precedence, highest first: environment, the file
// at path (optional), defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Errorf("configuration file not found: %s", path)
			}
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if _, err := c.MaxMessageBytes(); err != nil {
		return err
	}

	if _, err := c.Backend.MaxObjectSizeBytes(); err != nil {
		return err
	}

	switch c.Backend.Type {
	case "memory":
	case "badger":
		if c.Backend.Dir == "" {
			return errors.New("backend.dir is required for the badger backend")
		}
		if _, err := c.Backend.ChunkSizeBytes(); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown backend type %q", c.Backend.Type)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return errors.New("metrics.listen is required when metrics are enabled")
	}
	return nil
}

// MaxMessageBytes parses MaxMessageSize.
func (c *Config) MaxMessageBytes() (int, error) {
	n, err := humanize.ParseBytes(c.MaxMessageSize)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid max_message_size %q", c.MaxMessageSize)
	}
	if n == 0 || n > 1<<31-1 {
		return 0, errors.Errorf("max_message_size %q out of range", c.MaxMessageSize)
	}
	return int(n), nil
}

// ChunkSizeBytes parses ChunkSize.
func (b BackendConfig) ChunkSizeBytes() (uint64, error) {
	n, err := humanize.ParseBytes(b.ChunkSize)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid backend.chunk_size %q", b.ChunkSize)
	}
	if n == 0 {
		return 0, errors.New("backend.chunk_size must be positive")
	}
	return n, nil
}

// MaxObjectSizeBytes parses MaxObjectSize.
func (b BackendConfig) MaxObjectSizeBytes() (uint64, error) {
	n, err := humanize.ParseBytes(b.MaxObjectSize)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid backend.max_object_size %q", b.MaxObjectSize)
	}
	if n == 0 {
		return 0, errors.New("backend.max_object_size must be positive")
	}
	return n, nil
}
