package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML or YAML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials" yaml:"credentials"`
	Playlist    PlaylistConfig    `toml:"playlist" yaml:"playlist"`
	Dedupe      DedupeConfig      `toml:"dedupe" yaml:"dedupe"`
	Database    DatabaseConfig    `toml:"database" yaml:"database"`
	Metrics     MetricsConfig     `toml:"metrics" yaml:"metrics"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	SoundCloud SoundCloudConfig `toml:"soundcloud" yaml:"soundcloud"`
}

// SoundCloudConfig holds the client options for the hosting service.
//
// Either AccessToken or Username and Password must be set.
type SoundCloudConfig struct {
	ClientID       string  `toml:"client_id" yaml:"client_id" validate:"required"`
	ClientSecret   string  `toml:"client_secret" yaml:"client_secret" validate:"required"`
	Username       string  `toml:"username" yaml:"username" validate:"required_without=AccessToken"`
	Password       string  `toml:"password" yaml:"password" validate:"required_with=Username"`
	AccessToken    string  `toml:"access_token" yaml:"access_token"`
	BaseURL        string  `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
	TokenURL       string  `toml:"token_url" yaml:"token_url" validate:"omitempty,url"`
	AuthURL        string  `toml:"auth_url" yaml:"auth_url" validate:"omitempty,url"`
	RedirectURI    string  `toml:"redirect_uri" yaml:"redirect_uri" validate:"omitempty,url"`
	RateLimit      float64 `toml:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	TimeoutSeconds int     `toml:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
}

// PlaylistConfig controls how author playlists are maintained.
type PlaylistConfig struct {
	Capacity   int    `toml:"capacity" yaml:"capacity" validate:"gte=1,lte=200"`
	Sharing    string `toml:"sharing" yaml:"sharing" validate:"oneof=public private"`
	MatchTitle bool   `toml:"match_title" yaml:"match_title"`
}

// DedupeConfig controls duplicate deletion fan-out.
type DedupeConfig struct {
	Workers   int     `toml:"workers" yaml:"workers" validate:"gte=1,lte=10"`
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
}

// DatabaseConfig contains database connection settings for the upload journal.
type DatabaseConfig struct {
	Path         string `toml:"path" yaml:"path"`
	MaxOpenConns int    `toml:"max_open_conns" yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `toml:"max_idle_conns" yaml:"max_idle_conns" validate:"gte=0"`
}

// MetricsConfig contains the Prometheus textfile destination.
type MetricsConfig struct {
	Textfile string `toml:"textfile" yaml:"textfile"`
}

// legacyConfig is the flat config.yml layout accepted for older installs.
type legacyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

// LoadConfig reads a configuration file, applies environment overrides and validates the result.
//
// Files ending in .yml or .yaml are decoded as YAML, everything else as TOML.
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = decodeYAML(data, config)
	default:
		err = toml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func decodeYAML(data []byte, config *Config) error {
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(config); err != nil {
		return err
	}

	var legacy legacyConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return err
	}

	sc := &config.Credentials.SoundCloud
	if legacy.ClientID != "" {
		sc.ClientID = legacy.ClientID
	}
	if legacy.ClientSecret != "" {
		sc.ClientSecret = legacy.ClientSecret
	}
	if legacy.Username != "" {
		sc.Username = legacy.Username
	}
	if legacy.Password != "" {
		sc.Password = legacy.Password
	}
	return nil
}

// ApplyEnv overrides credentials with TWHISPR_* environment variables when they are set.
func (c *Config) ApplyEnv() {
	sc := &c.Credentials.SoundCloud
	for env, target := range map[string]*string{
		"TWHISPR_CLIENT_ID":     &sc.ClientID,
		"TWHISPR_CLIENT_SECRET": &sc.ClientSecret,
		"TWHISPR_USERNAME":      &sc.Username,
		"TWHISPR_PASSWORD":      &sc.Password,
		"TWHISPR_ACCESS_TOKEN":  &sc.AccessToken,
	} {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes config to path, as YAML for .yml/.yaml and TOML otherwise.
//
// Comments from the original file are not preserved.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(config); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		enc.Close()
	default:
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
