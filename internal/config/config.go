// Package config loads the settings of the cognitoauth command.
//
// Values are layered by viper: defaults, then an optional YAML file, then
// COGNITOAUTH_* environment variables, then any flags bound to the viper
// instance with BindPFlag.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load. Nested keys
// use underscores, so jwks.cache_ttl is COGNITOAUTH_JWKS_CACHE_TTL.
const EnvPrefix = "COGNITOAUTH"

// Config holds the settings of the cognitoauth command.
type Config struct {
	Region     string        `yaml:"region"       mapstructure:"region"`
	UserPoolID string        `yaml:"user_pool_id" mapstructure:"user_pool_id"`
	HeaderName string        `yaml:"header_name"  mapstructure:"header_name"`
	TokenUses  []string      `yaml:"token_uses"   mapstructure:"token_uses"`
	ClockSkew  time.Duration `yaml:"clock_skew"   mapstructure:"clock_skew"`

	JWKS   JWKSConfig   `yaml:"jwks"   mapstructure:"jwks"`
	Redis  RedisConfig  `yaml:"redis"  mapstructure:"redis"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log"    mapstructure:"log"`
}

// JWKSConfig controls how key sets are downloaded and cached.
type JWKSConfig struct {
	CacheTTL    time.Duration `yaml:"cache_ttl"    mapstructure:"cache_ttl"`
	MaxEntries  int           `yaml:"max_entries"  mapstructure:"max_entries"`
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`
}

// RedisConfig enables a shared key set cache when Addr is set.
type RedisConfig struct {
	Addr      string `yaml:"addr"       mapstructure:"addr"`
	Password  string `yaml:"password"   mapstructure:"password"`
	DB        int    `yaml:"db"         mapstructure:"db"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// ServerConfig is used by the serve command.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"  mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		HeaderName: "Authorization",
		TokenUses:  []string{"id", "access"},
		JWKS: JWKSConfig{
			CacheTTL:    15 * time.Minute,
			MaxEntries:  100,
			HTTPTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			KeyPrefix: "cognitoauth:jwks:",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// NewViper returns a viper instance holding the defaults and reading
// COGNITOAUTH_* environment variables. Every key has a default, so
// AutomaticEnv covers all of them on Unmarshal.
func NewViper() *viper.Viper {
	d := Default()
	v := viper.New()

	v.SetDefault("region", d.Region)
	v.SetDefault("user_pool_id", d.UserPoolID)
	v.SetDefault("header_name", d.HeaderName)
	v.SetDefault("token_uses", d.TokenUses)
	v.SetDefault("clock_skew", d.ClockSkew)
	v.SetDefault("jwks.cache_ttl", d.JWKS.CacheTTL)
	v.SetDefault("jwks.max_entries", d.JWKS.MaxEntries)
	v.SetDefault("jwks.http_timeout", d.JWKS.HTTPTimeout)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the YAML file at path into v, when path is set, and decodes
// the merged settings. An empty path skips the file.
func Load(v *viper.Viper, path string) (Config, error) {
	if err := readFile(v, path); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to decode configuration: %w", err)
	}
	return cfg, nil
}

func readFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}

	if strings.Contains(path, "..") {
		return errors.New("config: file path must not contain directory traversal (..) sequences")
	}
	cleaned := filepath.Clean(path)

	switch ext := strings.ToLower(filepath.Ext(cleaned)); ext {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("config: unsupported file extension %q (use .yaml or .yml)", ext)
	}

	v.SetConfigFile(cleaned)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("config: failed to parse YAML file %q: %w", path, err)
		}
		return fmt.Errorf("config: failed to read file %q: %w", path, err)
	}
	return nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	var errs []error

	if c.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}
	if c.UserPoolID == "" {
		errs = append(errs, errors.New("user pool id is required"))
	}
	if strings.TrimSpace(c.HeaderName) == "" {
		errs = append(errs, errors.New("header name cannot be empty"))
	}
	if len(c.TokenUses) == 0 {
		errs = append(errs, errors.New("at least one token use is required"))
	}
	for _, use := range c.TokenUses {
		if use != "id" && use != "access" {
			errs = append(errs, fmt.Errorf("unsupported token use: %q", use))
		}
	}
	if c.ClockSkew < 0 {
		errs = append(errs, errors.New("clock skew cannot be negative"))
	}
	if c.JWKS.CacheTTL <= 0 {
		errs = append(errs, errors.New("jwks cache ttl must be positive"))
	}
	if c.JWKS.MaxEntries <= 0 {
		errs = append(errs, errors.New("jwks max entries must be positive"))
	}
	if c.JWKS.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("jwks http timeout must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format: %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
