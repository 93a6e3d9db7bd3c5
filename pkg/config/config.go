// Package config loads wfdiagram settings from a TOML file and the environment.
//
// The default file is $XDG_CONFIG_HOME/wfdiagram/config.toml (falling back to
// ~/.config/wfdiagram/config.toml). A missing file is not an error: every
// setting has a default. Environment variables override the file:
//
//	WFDIAGRAM_DATABASE_URL  [database] url
//	WFDIAGRAM_REDIS_ADDR    [redis] addr
//	WFDIAGRAM_MONGO_URI     [mongo] uri
//	WFDIAGRAM_ADDR          [server] addr
//
// Example file:
//
//	[layout]
//	engine = "layered"
//	direction = "LR"
//
//	[hints]
//	bend_padding = 20
//
//	[cache]
//	backend = "redis"
//
//	[redis]
//	addr = "localhost:6379"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wfdiagram/pkg/cache"
	"github.com/matzehuels/wfdiagram/pkg/diagram"
	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/layout"
	"github.com/matzehuels/wfdiagram/pkg/source/postgres"
)

// Environment variable names.
const (
	EnvDatabaseURL = "WFDIAGRAM_DATABASE_URL"
	EnvRedisAddr   = "WFDIAGRAM_REDIS_ADDR"
	EnvMongoURI    = "WFDIAGRAM_MONGO_URI"
	EnvAddr        = "WFDIAGRAM_ADDR"
)

// DefaultAddr is the API server listen address.
const DefaultAddr = ":8080"

// Config is the full settings tree.
type Config struct {
	Layout   Layout   `toml:"layout"`
	Hints    Hints    `toml:"hints"`
	Cache    Cache    `toml:"cache"`
	Redis    Redis    `toml:"redis"`
	Mongo    Mongo    `toml:"mongo"`
	Database Database `toml:"database"`
	Server   Server   `toml:"server"`
}

// Layout holds the default layout settings.
type Layout struct {
	Engine     string  `toml:"engine"`
	Direction  string  `toml:"direction"`
	NodeWidth  float64 `toml:"node_width"`
	NodeHeight float64 `toml:"node_height"`
	RankSep    float64 `toml:"rank_sep"`
	NodeSep    float64 `toml:"node_sep"`
}

// Hints holds the merge-hint constants.
type Hints struct {
	Disabled          bool    `toml:"disabled"`
	RowTolerance      float64 `toml:"row_tolerance"`
	BendPadding       float64 `toml:"bend_padding"`
	DefaultNodeHeight float64 `toml:"default_node_height"`
}

// Hinter returns the configured heuristic. The values are used as given;
// [Default] already holds the reference constants.
func (h Hints) Hinter() diagram.Hinter {
	return diagram.Hinter{
		RowTolerance:      h.RowTolerance,
		BendPadding:       h.BendPadding,
		DefaultNodeHeight: h.DefaultNodeHeight,
		Exact:             true,
	}
}

// Cache selects the cache backend.
type Cache struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	// Scope prefixes every cache key, so deployments sharing one Redis or
	// MongoDB do not read each other's entries.
	Scope string `toml:"scope"`
}

// Redis configures the redis cache backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Mongo configures the mongo cache backend.
type Mongo struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Database configures the job-queue workflow source.
type Database struct {
	URL    string `toml:"url"`
	Schema string `toml:"schema"`
	Table  string `toml:"table"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	CORSOrigins  []string      `toml:"cors_origins"`
	// WorkflowDir serves workflows from JSON files when no database is configured.
	WorkflowDir string `toml:"workflow_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout: Layout{
			Engine:     graph.EngineLayered,
			Direction:  graph.DirectionLR,
			NodeWidth:  layout.DefaultNodeWidth,
			NodeHeight: layout.DefaultNodeHeight,
			RankSep:    layout.DefaultRankSep,
			NodeSep:    layout.DefaultNodeSep,
		},
		Hints: Hints{
			RowTolerance:      diagram.RowTolerance,
			BendPadding:       diagram.BendPadding,
			DefaultNodeHeight: diagram.DefaultNodeHeight,
		},
		Cache: Cache{Backend: cache.BackendFile, TTL: cache.TTLDiagram},
		Redis: Redis{Addr: "localhost:6379", Prefix: "wfdiagram:"},
		Mongo: Mongo{URI: "mongodb://localhost:27017", Database: "wfdiagram", Collection: "cache"},
		Database: Database{
			Schema: postgres.DefaultSchema,
			Table:  postgres.DefaultTable,
		},
		Server: Server{
			Addr:         DefaultAddr,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "wfdiagram", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "get home dir")
	}
	return filepath.Join(home, ".config", "wfdiagram", "config.toml"), nil
}

// Load reads the config file at path (the default location when empty),
// applies environment overrides and validates the result. A missing file at
// the default location yields the defaults; an explicitly named file must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
		}
	} else if explicit || !os.IsNotExist(err) {
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML text on top of the defaults. Environment variables are
// not consulted.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides settings from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.Mongo.URI = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

var cacheBackends = []string{cache.BackendNone, cache.BackendFile, cache.BackendRedis, cache.BackendMongo}

// Validate checks enumerated values and numeric ranges.
func (c Config) Validate() error {
	if _, err := layout.NewEngine(c.Layout.Engine); err != nil {
		return err
	}
	lo := layout.Options{
		Direction:  c.Layout.Direction,
		NodeWidth:  c.Layout.NodeWidth,
		NodeHeight: c.Layout.NodeHeight,
		RankSep:    c.Layout.RankSep,
		NodeSep:    c.Layout.NodeSep,
	}
	if err := lo.Validate(); err != nil {
		return err
	}
	if c.Hints.RowTolerance < 0 || c.Hints.BendPadding < 0 || c.Hints.DefaultNodeHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "hint constants must not be negative")
	}
	if c.Cache.Backend != "" && !slices.Contains(cacheBackends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want one of %v)", c.Cache.Backend, cacheBackends)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache ttl must not be negative")
	}
	if c.Database.URL != "" {
		if err := c.PostgresConfig().Validate(); err != nil {
			return err
		}
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server timeouts must not be negative")
	}
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			continue
		}
		if err := errors.ValidateURL(origin); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "cors origin %q", origin)
		}
	}
	return nil
}

// Keyer returns the cache keyer for the configured scope.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.Scope == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.Scope+":")
}

// CacheOptions converts the cache sections for [cache.Open].
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
		Mongo: cache.MongoConfig{
			URI:        c.Mongo.URI,
			Database:   c.Mongo.Database,
			Collection: c.Mongo.Collection,
		},
	}
}

// PostgresConfig converts the database section for [postgres.Open].
func (c Config) PostgresConfig() postgres.Config {
	return postgres.Config{URL: c.Database.URL, Schema: c.Database.Schema, Table: c.Database.Table}
}
