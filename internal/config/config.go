// Package config loads the lineage configuration file and applies
// environment overrides.
//
// Settings come from a TOML file (by default
// $XDG_CONFIG_HOME/lineage/lineage.toml); environment variables win over
// the file:
//
//	DATABRICKS_HOST, DATABRICKS_HTTP_PATH, DATABRICKS_TOKEN
//	LINEAGE_REDIS_ADDR, LINEAGE_MONGO_URI, PORT
//
// A .env file in the working directory supplies any of them that the
// process environment leaves unset.
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/query"
)

const (
	appName  = "lineage"
	fileName = "lineage.toml"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Duration is a time.Duration read from a string such as "15m".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete configuration.
type Config struct {
	Databricks Databricks `toml:"databricks"`
	Cache      Cache      `toml:"cache"`
	Settings   Settings   `toml:"settings"`
	Server     Server     `toml:"server"`
	Layout     Layout     `toml:"layout"`
}

// Databricks holds the SQL warehouse connection.
type Databricks struct {
	Host        string  `toml:"host"`
	HTTPPath    string  `toml:"http_path"`
	Token       string  `toml:"token"`
	WaitTimeout string  `toml:"wait_timeout"`
	RateLimit   float64 `toml:"rate_limit"` // requests per second, 0 for unlimited
}

// Cache selects where fetched result sets are cached.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Settings selects where saved hierarchies are stored.
type Settings struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Server configures the HTTP API.
type Server struct {
	Addr       string   `toml:"addr"`
	SessionTTL Duration `toml:"session_ttl"`
}

// Layout overrides the layout engine's spacing.
type Layout struct {
	Direction string  `toml:"direction"`
	NodeSep   float64 `toml:"node_sep"`
	RankSep   float64 `toml:"rank_sep"`
	MarginX   float64 `toml:"margin_x"`
	MarginY   float64 `toml:"margin_y"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache: Cache{
			Backend: BackendFile,
			TTL:     Duration{time.Hour},
		},
		Settings: Settings{
			Backend:       BackendFile,
			MongoDatabase: appName,
		},
		Server: Server{
			Addr:       ":5000",
			SessionTTL: Duration{2 * time.Hour},
		},
		Layout: Layout{Direction: string(layout.LeftToRight)},
	}
}

// Load reads the file at path on top of [Default] and applies environment
// overrides. An empty path means [DefaultPath]; a missing default file is
// not an error, a missing explicit one is.
//
// Variables from a .env file in the working directory count as environment
// when the process environment does not set them.
func Load(path string) (Config, error) {
	lookup, err := withDotenv(os.LookupEnv, dotenvFile)
	if err != nil {
		return Config{}, err
	}
	return load(path, lookup)
}

const dotenvFile = ".env"

// withDotenv returns a lookup that falls back to the variables in file.
// A missing file leaves lookup unchanged.
func withDotenv(lookup func(string) (string, bool), file string) (func(string) (string, bool), error) {
	vars, err := godotenv.Read(file)
	if stderrors.Is(err, fs.ErrNotExist) {
		return lookup, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", file)
	}
	return func(name string) (string, bool) {
		if v, ok := lookup(name); ok {
			return v, true
		}
		v, ok := vars[name]
		return v, ok
	}, nil
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path, explicit); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv(lookup)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, explicit bool) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv overrides file values with non-empty environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, name string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Databricks.Host, "DATABRICKS_HOST")
	set(&c.Databricks.HTTPPath, "DATABRICKS_HTTP_PATH")
	set(&c.Databricks.Token, "DATABRICKS_TOKEN")

	if v, ok := lookup("LINEAGE_REDIS_ADDR"); ok && v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = BackendRedis
	}
	if v, ok := lookup("LINEAGE_MONGO_URI"); ok && v != "" {
		c.Settings.MongoURI = v
		c.Settings.Backend = BackendMongo
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
}

// Validate checks backend names and the layout direction. Databricks
// credentials are checked only when a query is actually run.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendMemory, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Settings.Backend {
	case BackendFile:
	case BackendMongo:
		if c.Settings.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "settings backend mongo needs mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown settings backend %q", c.Settings.Backend)
	}

	if _, err := layout.ParseDirection(c.Layout.Direction); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout")
	}
	return nil
}

// DatabricksConfig converts the [databricks] section for the query client.
func (c Config) DatabricksConfig() query.DatabricksConfig {
	return query.DatabricksConfig{
		Host:        c.Databricks.Host,
		HTTPPath:    c.Databricks.HTTPPath,
		Token:       c.Databricks.Token,
		WaitTimeout: c.Databricks.WaitTimeout,
	}
}

// LayoutOptions converts the [layout] section. Unset values keep the
// engine's defaults.
func (c Config) LayoutOptions() layout.Options {
	opts := layout.DefaultOptions()
	if d, err := layout.ParseDirection(c.Layout.Direction); err == nil {
		opts.Direction = d
	}
	if c.Layout.NodeSep > 0 {
		opts.NodeSep = c.Layout.NodeSep
	}
	if c.Layout.RankSep > 0 {
		opts.RankSep = c.Layout.RankSep
	}
	if c.Layout.MarginX > 0 {
		opts.MarginX = c.Layout.MarginX
	}
	if c.Layout.MarginY > 0 {
		opts.MarginY = c.Layout.MarginY
	}
	return opts
}

// CacheDir returns the configured cache directory, or the XDG default
// (~/.cache/lineage).
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// SettingsDir returns the configured settings directory, or
// ~/.config/lineage/settings.
func (c Config) SettingsDir() (string, error) {
	if c.Settings.Dir != "" {
		return c.Settings.Dir, nil
	}
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
