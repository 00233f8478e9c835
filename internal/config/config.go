// Package config loads settings from an optional config file and the
// environment (AFIP_ prefix).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rezonia/afip-invoicer/internal/logger"
)

// Config is the resolved runtime configuration.
type Config struct {
	CUIT        string
	Certificate string
	PrivateKey  string
	Credentials string
	Production  bool
	Timeout     time.Duration
	RateLimit   float64
	DatabaseDSN string
	Server      ServerConfig
	Log         logger.LogConfig
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address        string
	JWTSecret      string
	AllowedOrigins []string
	RequestsPerMin int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// New returns a viper instance with defaults and env bindings in place.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("AFIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("credentials", "credentials.json")
	v.SetDefault("production", false)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("server_address", ":8080")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("api_rate_limit", 60)
	v.SetDefault("read_timeout", 30*time.Second)
	v.SetDefault("write_timeout", 2*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_output", "stderr")

	// log settings are shared with other tools and carry no prefix
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("log_format", "LOG_FORMAT")
	_ = v.BindEnv("log_output", "LOG_OUTPUT")

	return v
}

// Load reads file when given, otherwise an afip-invoicer.{yaml,json,toml} in
// the working directory if one exists.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("afip-invoicer")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return &Config{
		CUIT:        v.GetString("cuit"),
		Certificate: v.GetString("certificate"),
		PrivateKey:  v.GetString("private_key"),
		Credentials: v.GetString("credentials"),
		Production:  v.GetBool("production"),
		Timeout:     v.GetDuration("timeout"),
		RateLimit:   v.GetFloat64("rate_limit"),
		DatabaseDSN: v.GetString("database_dsn"),
		Server: ServerConfig{
			Address:        v.GetString("server_address"),
			JWTSecret:      v.GetString("jwt_secret"),
			AllowedOrigins: v.GetStringSlice("cors_origins"),
			RequestsPerMin: v.GetInt("api_rate_limit"),
			ReadTimeout:    v.GetDuration("read_timeout"),
			WriteTimeout:   v.GetDuration("write_timeout"),
		},
		Log: logger.LogConfig{
			Level:      v.GetString("log_level"),
			Format:     v.GetString("log_format"),
			TimeFormat: time.RFC3339,
			Output:     v.GetString("log_output"),
		},
	}, nil
}

// ValidateIdentity checks the settings needed to talk to AFIP.
func (c *Config) ValidateIdentity() error {
	var missing []string
	if c.CUIT == "" {
		missing = append(missing, "cuit")
	}
	if c.Certificate == "" {
		missing = append(missing, "certificate")
	}
	if c.PrivateKey == "" {
		missing = append(missing, "private-key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if len(c.CUIT) != 11 || strings.Trim(c.CUIT, "0123456789") != "" {
		return fmt.Errorf("cuit must be 11 digits: %s", c.CUIT)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}
