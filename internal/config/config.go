// Package config provides configuration management for a11ytabs using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files, environment variable overrides
// with the A11YTABS_ prefix, and validation. It holds the widget selectors and
// direction used when mounting tab containers, the preview server address,
// file watching and logging options.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

// Default values applied by Load when a key is not set.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 8080
	DefaultDebounce = 100 * time.Millisecond
	DefaultRTL      = "auto"
)

// Environment variables override file values under this prefix, with
// nested keys joined by underscores (A11YTABS_SERVER_PORT).
const EnvPrefix = "A11YTABS"

// EnvKeyReplacer maps viper keys to environment variable suffixes.
var EnvKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

type Config struct {
	Widget      WidgetConfig `mapstructure:"widget" yaml:"widget"`
	Server      ServerConfig `mapstructure:"server" yaml:"server"`
	Watch       WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Log         LogConfig    `mapstructure:"log" yaml:"log"`
	TargetFiles []string     `mapstructure:"-" yaml:"-"` // CLI arguments, not from config file
}

type WidgetConfig struct {
	Container string `mapstructure:"container" yaml:"container"`
	Tablist   string `mapstructure:"tablist" yaml:"tablist"`
	Tabpanel  string `mapstructure:"tabpanel" yaml:"tabpanel"`
	RTL       string `mapstructure:"rtl" yaml:"rtl"`
	Active    int    `mapstructure:"active" yaml:"active"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Keys lists every configuration key, for binding environment variables.
var Keys = []string{
	"widget.container", "widget.tablist", "widget.tabpanel", "widget.rtl", "widget.active",
	"server.host", "server.port", "server.allowed_origins",
	"watch.enabled", "watch.debounce",
	"log.level", "log.format",
}

// BindEnv makes every key overridable from the environment. AutomaticEnv
// alone only covers keys viper already knows about.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()
	for _, key := range Keys {
		if err := v.BindEnv(key); err != nil {
			return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to bind "+key)
		}
	}
	return nil
}

// Load reads the configuration from the global viper instance, applies
// defaults and validates the result.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load over a specific viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "invalid configuration")
	}
	return config, nil
}

// Decode unmarshals the configuration and applies defaults without
// validating it.
func Decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// Handle origins set via viper (workaround for viper slice handling)
	if v.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	// Handle watch.enabled set via viper (workaround for viper bool handling)
	if v.IsSet("watch.enabled") {
		config.Watch.Enabled = v.GetBool("watch.enabled")
	} else {
		config.Watch.Enabled = true
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Widget.Container == "" {
		config.Widget.Container = tabs.DefaultContainerSelector
	}
	if config.Widget.Tablist == "" {
		config.Widget.Tablist = tabs.DefaultTablistSelector
	}
	if config.Widget.Tabpanel == "" {
		config.Widget.Tabpanel = tabs.DefaultTabpanelSelector
	}
	if config.Widget.RTL == "" {
		config.Widget.RTL = DefaultRTL
	}

	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if config.Server.Port == 0 {
		config.Server.Port = DefaultPort
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = DefaultDebounce
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values and reports the first error.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if !result.HasErrors() {
		return nil
	}
	first := result.Errors[0]
	return fmt.Errorf("%s: %w", first.Field, &first)
}

// RTLMode returns the parsed widget direction mode.
func (c *Config) RTLMode() tabs.RTLMode {
	mode, _ := tabs.ParseRTLMode(c.Widget.RTL)
	return mode
}

// MountOptions builds the options for mounting every configured container.
func (c *Config) MountOptions(logger logging.Logger) tabs.MountOptions {
	return tabs.MountOptions{
		ContainerSelector: c.Widget.Container,
		RTL:               c.RTLMode(),
		Config: tabs.Config{
			TablistSelector:  c.Widget.Tablist,
			TabpanelSelector: c.Widget.Tabpanel,
			ActiveIndex:      c.Widget.Active,
			Logger:           logger,
		},
	}
}

// LoggerConfig builds the logger configuration for the log section.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.Log.Format
	return cfg
}

// Address returns host:port for the preview server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
