// Package config loads the daemon's TOML configuration file: one or more
// GNSS devices plus the logger, metrics and gpsd server settings that sit
// around the core pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the daemon.
type Config struct {
	Device  []DeviceConfig `mapstructure:"device"`
	Logger  LoggerConfig   `mapstructure:"logger"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Gpsd    GpsdConfig     `mapstructure:"gpsd"`
}

// DeviceConfig describes one serial-attached GNSS receiver and its paired
// PPS device and NTP SHM unit.
type DeviceConfig struct {
	Name        string   `mapstructure:"name"`
	Path        string   `mapstructure:"path"`
	GPSType     string   `mapstructure:"gps_type"` // "generic" | "mkt" | "ublox-nmea"
	BaudRate    int      `mapstructure:"baud_rate"`
	Framing     string   `mapstructure:"framing"`      // e.g. "8N1"
	FlowControl string   `mapstructure:"flow_control"` // "N" | "H" | "S"
	TimeoutMs   int      `mapstructure:"timeout_ms"`
	Messages    []string `mapstructure:"messages"`
	NTPUnit     int      `mapstructure:"ntp_unit"`
	PPSDevice   string   `mapstructure:"pps_device"`
}

// LoggerConfig contains logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	LogDir string `mapstructure:"log_dir"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// GpsdConfig contains gpsd-compatible JSON server settings.
type GpsdConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// ConfigurationError reports a value that failed validation during Load:
// synchronous, surfaced to the caller, never retried.
type ConfigurationError struct {
	Device string
	Field  string
	Value  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: device %q: invalid %s %q", e.Device, e.Field, e.Value)
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("toml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("GNSSTIMED")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	for _, d := range cfg.Device {
		if len(d.Framing) != 3 {
			return &ConfigurationError{Device: d.Name, Field: "framing", Value: d.Framing}
		}
		switch d.Framing[0] {
		case '5', '6', '7', '8':
		default:
			return &ConfigurationError{Device: d.Name, Field: "framing.data_bits", Value: d.Framing}
		}
		switch d.Framing[1] {
		case 'N', 'O', 'E':
		default:
			return &ConfigurationError{Device: d.Name, Field: "framing.parity", Value: d.Framing}
		}
		switch d.Framing[2] {
		case '1', '2':
		default:
			return &ConfigurationError{Device: d.Name, Field: "framing.stop_bits", Value: d.Framing}
		}
		switch d.FlowControl {
		case "N", "H", "S", "":
		default:
			return &ConfigurationError{Device: d.Name, Field: "flow_control", Value: d.FlowControl}
		}
		switch d.GPSType {
		case "generic", "mkt", "ublox-nmea", "":
		default:
			return &ConfigurationError{Device: d.Name, Field: "gps_type", Value: d.GPSType}
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen", "0.0.0.0:9123")

	v.SetDefault("gpsd.enabled", true)
	v.SetDefault("gpsd.listen", "0.0.0.0:2947")
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".gnsstimed")
}
