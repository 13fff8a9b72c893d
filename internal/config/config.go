// Package config loads screenkit settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Templates TemplatesConfig
	Telemetry TelemetryConfig
	Auth      AuthConfig
	Locale    string
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr     string
	BasePath string `mapstructure:"base_path"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// TemplatesConfig points at a directory of template overrides.
type TemplatesConfig struct {
	Dir string
}

// TelemetryConfig holds OTLP exporter settings.
type TelemetryConfig struct {
	Endpoint    string
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool
}

// AuthConfig holds principal resolution settings.
type AuthConfig struct {
	// DefaultUser is the email requests without an identity header run as.
	// Empty means anonymous.
	DefaultUser string `mapstructure:"default_user"`
	Header      string
}

// Load reads configuration from file and env. Env var overrides use prefix SCREENKIT_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "/admin")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "screenkit", "screenkit.db"))
	v.SetDefault("templates.dir", "")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "screenkit")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("auth.default_user", "")
	v.SetDefault("auth.header", "X-User-Email")
	v.SetDefault("locale", "en")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SCREENKIT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "screenkit"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SCREENKIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
