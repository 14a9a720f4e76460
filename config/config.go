// Package config loads service configuration from TOML or YAML files and
// the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid configuration")

// Duration is a time.Duration that decodes from strings such as "24h".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

type HTTPConfig struct {
	Address      string   `toml:"address" yaml:"address" validate:"required"`
	ReadTimeout  Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout" yaml:"write_timeout"`
}

type RedisConfig struct {
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port" validate:"min=0,max=65535"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db" validate:"min=0"`
}

type CacheConfig struct {
	Backend  string      `toml:"backend" yaml:"backend" validate:"oneof=memory redis none"`
	TTL      Duration    `toml:"ttl" yaml:"ttl"`
	Codec    string      `toml:"codec" yaml:"codec" validate:"oneof=json msgpack"`
	Capacity int         `toml:"capacity" yaml:"capacity" validate:"min=0"`
	Redis    RedisConfig `toml:"redis" yaml:"redis"`
}

type StoreConfig struct {
	Driver string `toml:"driver" yaml:"driver" validate:"oneof=memory sqlite postgres"`
	// DSN is the Postgres connection string or the SQLite database path.
	DSN string `toml:"dsn" yaml:"dsn" validate:"required_unless=Driver memory"`
}

type GoogleConfig struct {
	APIKey     string   `toml:"api_key" yaml:"api_key"`
	BaseURL    string   `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Timeout    Duration `toml:"timeout" yaml:"timeout"`
	RetryCount int      `toml:"retry_count" yaml:"retry_count" validate:"min=0"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" yaml:"format" validate:"oneof=json console"`
}

// Config is the full service configuration.
type Config struct {
	HTTP   HTTPConfig   `toml:"http" yaml:"http"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Google GoogleConfig `toml:"google" yaml:"google"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(15 * time.Second),
		},
		Cache: CacheConfig{
			Backend:  "memory",
			TTL:      Duration(24 * time.Hour),
			Codec:    "json",
			Capacity: 10_000,
			Redis:    RedisConfig{Host: "localhost", Port: 6379},
		},
		Store:  StoreConfig{Driver: "memory"},
		Google: GoogleConfig{Timeout: Duration(10 * time.Second)},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// LoadOptions tunes config loading behavior.
type LoadOptions struct {
	// Strict rejects unknown keys.
	Strict bool
	// LookupEnv overrides os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load reads path (TOML or YAML by extension) over the defaults, applies
// environment overrides and validates the result. An empty path loads the
// defaults and the environment only.
func Load(path string, opts LoadOptions) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decode(path, data, &cfg, opts.Strict); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config, strict bool) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		return dec.Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
		}
		return nil
	}

	str("PLACES_HTTP_ADDRESS", &cfg.HTTP.Address)
	str("PLACES_CACHE_BACKEND", &cfg.Cache.Backend)
	str("PLACES_CACHE_CODEC", &cfg.Cache.Codec)
	str("REDIS_HOST", &cfg.Cache.Redis.Host)
	str("REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	str("PLACES_STORE_DRIVER", &cfg.Store.Driver)
	str("PLACES_STORE_DSN", &cfg.Store.DSN)
	str("GOOGLE_API_KEY", &cfg.Google.APIKey)
	str("PLACES_LOG_LEVEL", &cfg.Log.Level)
	str("PLACES_LOG_FORMAT", &cfg.Log.Format)
	if err := num("REDIS_PORT", &cfg.Cache.Redis.Port); err != nil {
		return err
	}
	if err := num("REDIS_DB", &cfg.Cache.Redis.DB); err != nil {
		return err
	}
	return dur("PLACES_CACHE_TTL", &cfg.Cache.TTL)
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Host == "" {
		return fmt.Errorf("%w: redis host is required", ErrInvalid)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache ttl must not be negative", ErrInvalid)
	}
	return nil
}
