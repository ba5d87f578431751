// Package config provides configuration management for cadenza: defaults,
// an optional yaml config file, and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dorcha-inc/cadenza/internal/core"
)

const (
	// DefaultTimeoutSeconds is the flat per-request deadline for device calls.
	DefaultTimeoutSeconds = 5.0
	DefaultPort           = 8080

	// ProjectConfigFileName is picked up from the working directory when no
	// explicit config path is given.
	ProjectConfigFileName = "cadenza.yaml"
)

type LogFormat string

const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
	// LogFormatAuto picks pretty when stderr is a terminal, json otherwise.
	LogFormatAuto LogFormat = "auto"
)

func ValidLogFormats() map[LogFormat]struct{} {
	return map[LogFormat]struct{}{
		LogFormatPretty: {},
		LogFormatJSON:   {},
		LogFormatAuto:   {},
	}
}

func IsValidLogFormat(format LogFormat) bool {
	_, ok := ValidLogFormats()[format]
	return ok
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

func ValidLogLevels() map[LogLevel]struct{} {
	return map[LogLevel]struct{}{
		LogLevelDebug: {},
		LogLevelInfo:  {},
		LogLevelWarn:  {},
		LogLevelError: {},
		LogLevelFatal: {},
	}
}

func IsValidLogLevel(level LogLevel) bool {
	_, ok := ValidLogLevels()[level]
	return ok
}

// Config represents the cadenza configuration: the device the bridge talks
// to, the HTTP timeout for device calls, the port the MCP server listens
// on in HTTP mode, and logging settings.
type Config struct {
	DeviceBaseURL string    `yaml:"device_base_url,omitempty" mapstructure:"device_base_url"` // base URL of the device REST API, scheme required
	Timeout       float64   `yaml:"timeout,omitempty" mapstructure:"timeout"`                 // device HTTP timeout in seconds
	Port          int       `yaml:"port,omitempty" mapstructure:"port"`                       // the port to listen on in HTTP mode
	LogFormat     LogFormat `yaml:"log_format,omitempty" mapstructure:"log_format"`           // "pretty", "json", or "auto"
	LogLevel      LogLevel  `yaml:"log_level,omitempty" mapstructure:"log_level"`             // "debug", "info", "warn", "error", "fatal"
}

// Default returns the built-in configuration, without a device address;
// the address has no sensible default and must come from the environment,
// a config file, or a flag.
func Default() *Config {
	return &Config{
		Timeout:   DefaultTimeoutSeconds,
		Port:      DefaultPort,
		LogFormat: LogFormatAuto,
		LogLevel:  LogLevelInfo,
	}
}

// HTTPTimeout converts the configured timeout into a duration.
func (cfg *Config) HTTPTimeout() time.Duration {
	return time.Duration(cfg.Timeout * float64(time.Second))
}

// setupViper configures Viper with defaults, the config file location, and
// environment variables. If configPath is empty, cadenza.yaml in the
// working directory is used when present.
func setupViper(configPath string) error {
	viper.Reset()
	setViperDefaults()
	viper.SetEnvPrefix("CADENZA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	if _, err := os.Stat(ProjectConfigFileName); err == nil {
		viper.SetConfigFile(ProjectConfigFileName)
		if readErr := viper.ReadInConfig(); readErr != nil {
			zap.L().Debug("Failed to read project config file",
				zap.String("path", ProjectConfigFileName), zap.Error(readErr))
		}
	}

	return nil
}

func setViperDefaults() {
	viper.SetDefault("device_base_url", "")
	viper.SetDefault("timeout", DefaultTimeoutSeconds)
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("log_format", string(LogFormatAuto))
	viper.SetDefault("log_level", string(LogLevelInfo))
}

// Load loads configuration with precedence: environment variables over the
// config file over defaults. If configPath is provided, that file is used;
// otherwise cadenza.yaml in the working directory is picked up when present.
func Load(configPath string) (*Config, error) {
	if err := setupViper(configPath); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration. The device base URL is allowed to
// be empty here: it is required to serve, and the serve path enforces that
// with a clearer startup error.
func Validate(cfg *Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", cfg.Port)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive number of seconds, got %g", cfg.Timeout)
	}
	if cfg.LogFormat != "" && !IsValidLogFormat(cfg.LogFormat) {
		return fmt.Errorf("log_format must be one of: %s, got '%s'", core.JoinMapKeys(ValidLogFormats()), cfg.LogFormat)
	}
	if cfg.LogLevel != "" && !IsValidLogLevel(cfg.LogLevel) {
		return fmt.Errorf("log_level must be one of: %s, got '%s'", core.JoinMapKeys(ValidLogLevels()), cfg.LogLevel)
	}
	return nil
}
