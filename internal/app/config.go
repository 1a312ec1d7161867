package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/fleetflow-client/internal/authtransport"
	"github.com/florianilch/fleetflow-client/internal/dashboard"
	"github.com/florianilch/fleetflow-client/internal/fleetapi"
	"github.com/florianilch/fleetflow-client/internal/observability"
	"github.com/florianilch/fleetflow-client/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText       LogFormat = observability.FormatText
	LogFormatJSON       LogFormat = observability.FormatJSON
	LogFormatOTelStdout LogFormat = observability.FormatOTelStdout
	LogFormatOTLPHTTP   LogFormat = observability.FormatOTLPHTTP
	LogFormatOTLPGRPC   LogFormat = observability.FormatOTLPGRPC
)

// TokenStorageType represents the different storage types supported for the session.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
	TokenStorageTypeBolt    TokenStorageType = "bolt"
)

// KeyringService is the OS keychain service name the session is stored under.
const KeyringService = "fleetflow-session"

// Default configuration values
const (
	DefaultConfigLogFormat           = LogFormatText
	DefaultConfigGatewayHost         = "127.0.0.1"
	DefaultConfigGatewayPort         = 4100
	DefaultConfigShutdownTimeout     = 5 * time.Second
	DefaultConfigAuthStorage         = TokenStorageTypeFile
	DefaultConfigAuthRefreshTimeout  = authtransport.DefaultRefreshTimeout
	DefaultConfigAPIBaseURL          = "http://localhost:5000/api/v1"
	DefaultConfigAPITimeout          = fleetapi.DefaultTimeout
	DefaultConfigDashboardPollPeriod = dashboard.DefaultInterval
)

// GatewayConfig holds the local gateway listener configuration.
type GatewayConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// APIConfig holds backend API configuration.
type APIConfig struct {
	BaseURL string        `json:"base_url" validate:"required,url"`
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
}

// AuthConfig describes where the session is persisted and how refreshes are bounded.
type AuthConfig struct {
	Storage TokenStorageType `json:"storage" validate:"required,oneof=file env keyring bolt"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to session file
	BoltFile    string `json:"bolt_file,omitempty"`    // For bolt storage: path to database
	EnvKey      string `json:"env_key,omitempty"`      // For env storage: environment variable name
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier

	RefreshTimeout time.Duration `json:"refresh_timeout" validate:"gte=0"`
}

// NewTokenStore creates the persistence backend for the session.
func (a *AuthConfig) NewTokenStore() (tokenstore.TokenStore, error) {
	switch a.Storage {
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(a.File)
	case TokenStorageTypeBolt:
		return tokenstore.NewBoltStore(a.BoltFile)
	case TokenStorageTypeEnv:
		return tokenstore.NewEnvStore(a.EnvKey)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(KeyringService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// DashboardConfig controls background dashboard refreshes.
type DashboardConfig struct {
	PollInterval time.Duration `json:"poll_interval" validate:"gte=0"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level      `json:"log_level"`
	LogFormat LogFormat       `json:"log_format" validate:"oneof=text json otel-stdout otlp-http otlp-grpc"`
	API       APIConfig       `json:"api"`
	Auth      AuthConfig      `json:"auth"`
	Gateway   GatewayConfig   `json:"gateway"`
	Dashboard DashboardConfig `json:"dashboard"`
	Shutdown  ShutdownConfig  `json:"shutdown"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.Gateway.Host == "" {
		c.Gateway.Host = DefaultConfigGatewayHost
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = DefaultConfigGatewayPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.Dashboard.PollInterval == 0 {
		c.Dashboard.PollInterval = DefaultConfigDashboardPollPeriod
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Auth.RefreshTimeout == 0 {
		c.Auth.RefreshTimeout = DefaultConfigAuthRefreshTimeout
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
			}
			c.Auth.File = filepath.Join(configDir, "fleetflow", "session")
		}
	case TokenStorageTypeBolt:
		if c.Auth.BoltFile == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.bolt_file required (auto-detect failed: %w)", err)
			}
			c.Auth.BoltFile = filepath.Join(configDir, "fleetflow", "session.db")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	case TokenStorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeBolt:
		if c.Auth.BoltFile == "" {
			return errors.New("bolt_file path required for bolt storage")
		}
	case TokenStorageTypeEnv:
		if c.Auth.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	return nil
}

// GatewayAddress is the host:port the gateway listens on.
func (c *Config) GatewayAddress() string {
	return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
}
