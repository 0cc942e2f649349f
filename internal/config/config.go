package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "ATTENDANCE"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "attendance.db"
	defaultLogLevel     = "info"
	defaultSessionTTL   = 720
	defaultVerifyTTL    = 10
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	LogLevel      string
	SigningSecret string
	SessionTTL    time.Duration
	VerifyTTL     time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.session_ttl_minutes", defaultSessionTTL)
	configViper.SetDefault("token.verify_ttl_minutes", defaultVerifyTTL)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		SigningSecret: configViper.GetString("token.signing_secret"),
		SessionTTL:    time.Duration(configViper.GetInt("token.session_ttl_minutes")) * time.Minute,
		VerifyTTL:     time.Duration(configViper.GetInt("token.verify_ttl_minutes")) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("token.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.SessionTTL <= 0 || c.VerifyTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	return nil
}
