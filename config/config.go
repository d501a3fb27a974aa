package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/webfm/internal/util"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config contains runtime configuration values for the file manager server.
type Config struct {
	Root             string            `validate:"required"`                 // Host directory served as "/" (Default "/")
	ListenAddr       string            `validate:"required"`                 // HTTP listen address (Default ":8080")
	LogLvl           util.LogLevel     `validate:"gte=0,lte=4"`              // Internal log level (Default info)
	LogFormat        util.LogFormat    `validate:"oneof=console json"`       // Log output format (Default "console")
	Impersonation    ImpersonationMode `validate:"oneof=thread serial none"` // Identity switching strategy (Default "thread")
	IdentityCacheTTL int               `validate:"gte=0"`                    // Seconds a resolved username stays cached, 0 disables the cache (Default 30)
	MaxUploadSize    int64             `validate:"gt=0"`                     // Maximum upload request body in bytes (Default 100MB)
	RequireAuth      bool              // Reject anonymous requests (Default false)
	AuthType         string            `validate:"oneof=allow static"`          // Authenticator type (Default "allow")
	Users            map[string]string `validate:"required_if=AuthType static"` // Username to bcrypt hash, for the static authenticator
	MetricsEnabled   bool              // Serve Prometheus metrics at /metrics (Default true)
	ReadTimeout      int               `validate:"gte=0"` // HTTP read timeout in seconds, 0 for none (Default 30)
	WriteTimeout     int               `validate:"gte=0"` // HTTP write timeout in seconds, 0 for none (Default 0)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	Root             *string           `yaml:"root,omitempty" json:"root,omitempty"`
	ListenAddr       *string           `yaml:"listen_addr,omitempty" json:"listen_addr,omitempty"`
	LogLvl           *int              `yaml:"verbose,omitempty" json:"verbose,omitempty"` // CLI verbosity 1-5
	LogFormat        *string           `yaml:"log_format,omitempty" json:"log_format,omitempty"`
	Impersonation    *string           `yaml:"impersonation,omitempty" json:"impersonation,omitempty"`
	IdentityCacheTTL *int              `yaml:"identity_cache_ttl,omitempty" json:"identity_cache_ttl,omitempty"`
	MaxUploadSize    *int64            `yaml:"max_upload_size,omitempty" json:"max_upload_size,omitempty"`
	RequireAuth      *bool             `yaml:"require_auth,omitempty" json:"require_auth,omitempty"`
	AuthType         *string           `yaml:"auth_type,omitempty" json:"auth_type,omitempty"`
	Users            map[string]string `yaml:"users,omitempty" json:"users,omitempty"`
	MetricsEnabled   *bool             `yaml:"metrics_enabled,omitempty" json:"metrics_enabled,omitempty"`
	ReadTimeout      *int              `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout     *int              `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		Root:             DefaultRoot,
		ListenAddr:       DefaultListenAddr,
		LogLvl:           DefaultLogLvl,
		LogFormat:        DefaultLogFormat,
		Impersonation:    DefaultImpersonation,
		IdentityCacheTTL: DefaultIdentityCacheTTL,
		MaxUploadSize:    DefaultMaxUploadSize,
		RequireAuth:      DefaultRequireAuth,
		AuthType:         DefaultAuthType,
		MetricsEnabled:   DefaultMetricsEnabled,
		ReadTimeout:      DefaultReadTimeout,
		WriteTimeout:     DefaultWriteTimeout,
	}
}

// NewConfig returns the default Config with override applied. A nil override
// yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.Root != nil {
		c.Root = *override.Root
	}
	if override.ListenAddr != nil {
		c.ListenAddr = *override.ListenAddr
	}
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.LogFormat != nil {
		c.LogFormat = *override.LogFormat
	}
	if override.Impersonation != nil {
		c.Impersonation = *override.Impersonation
	}
	if override.IdentityCacheTTL != nil {
		c.IdentityCacheTTL = *override.IdentityCacheTTL
	}
	if override.MaxUploadSize != nil {
		c.MaxUploadSize = *override.MaxUploadSize
	}
	if override.RequireAuth != nil {
		c.RequireAuth = *override.RequireAuth
	}
	if override.AuthType != nil {
		c.AuthType = *override.AuthType
	}
	if override.Users != nil {
		if c.Users == nil {
			c.Users = make(map[string]string, len(override.Users))
		}
		maps.Copy(c.Users, override.Users)
	}
	if override.MetricsEnabled != nil {
		c.MetricsEnabled = *override.MetricsEnabled
	}
	if override.ReadTimeout != nil {
		c.ReadTimeout = *override.ReadTimeout
	}
	if override.WriteTimeout != nil {
		c.WriteTimeout = *override.WriteTimeout
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that Root is an existing directory.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("invalid config: root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid config: root %s is not a directory", c.Root)
	}
	return nil
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
