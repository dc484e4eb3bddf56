package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the gateway configuration.
type Config struct {
	// HTTP server
	ListenAddr string

	// Account database
	DBPath string

	// Vault key used to encrypt stored mailbox passwords
	EncryptionKey string

	// Mail session timeouts
	ConnectTimeout time.Duration
	AuthTimeout    time.Duration

	// VerifyTLS enables certificate verification on mail sessions. The
	// historical default is permissive (accept-all); flip this on for a
	// stricter deployment.
	VerifyTLS bool

	LogLevel string
}

// Load reads configuration from an optional mailgate.yaml in the working
// directory and from MAILGATE_* environment variables, with env taking
// precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("mailgate")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8085")
	v.SetDefault("db_path", "data/mailgate.db")
	v.SetDefault("encryption_key", "")
	v.SetDefault("connect_timeout", 15*time.Second)
	v.SetDefault("auth_timeout", 15*time.Second)
	v.SetDefault("verify_tls", false)
	v.SetDefault("log_level", "info")

	v.SetConfigName("mailgate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:     v.GetString("listen_addr"),
		DBPath:         v.GetString("db_path"),
		EncryptionKey:  v.GetString("encryption_key"),
		ConnectTimeout: v.GetDuration("connect_timeout"),
		AuthTimeout:    v.GetDuration("auth_timeout"),
		VerifyTLS:      v.GetBool("verify_tls"),
		LogLevel:       v.GetString("log_level"),
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.EncryptionKey == "" {
		return fmt.Errorf("encryption_key is required")
	}
	if c.ConnectTimeout <= 0 || c.AuthTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
