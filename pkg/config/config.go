package config

import (
	"strings"
	"time"

	"github.com/agubarev/lowcode/pkg/database"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, i.e.: LOWCODE_POSTGRES_DSN
const EnvPrefix = "LOWCODE"

// store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
)

// errors
var (
	ErrUnknownBackend  = errors.New("unknown store backend")
	ErrEmptyDSN        = errors.New("postgres dsn is empty")
	ErrEmptyRedisAddr  = errors.New("redis address is empty")
	ErrEmptyBadgerDir  = errors.New("badger directory is empty")
	ErrInvalidMaxConns = errors.New("postgres max connections must be positive")
)

// Log settings
type Log struct {
	Debug bool
	Dir   string
}

// Postgres settings
type Postgres struct {
	DSN         string
	MaxConns    int32
	ConnTimeout time.Duration
}

// Redis settings
type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Badger settings
type Badger struct {
	Dir string
}

// Config is the runtime configuration
type Config struct {
	Log      Log
	Backend  string
	Postgres Postgres
	Redis    Redis
	Badger   Badger
}

func defaults(v *viper.Viper) {
	v.SetDefault("log.debug", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 20)
	v.SetDefault("postgres.conn_timeout", 10*time.Second)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "lowcode:workflow:")
	v.SetDefault("badger.dir", "")
}

// New returns a viper instance aware of defaults and the environment
func New() *viper.Viper {
	v := viper.New()

	defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration from a YAML file, if the path is given,
// environment variables take precedence over the file
func Load(path string) (Config, error) {
	v := New()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	return FromViper(v)
}

// FromViper extracts and validates configuration
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Log: Log{
			Debug: v.GetBool("log.debug"),
			Dir:   strings.TrimSpace(v.GetString("log.dir")),
		},
		Backend: strings.ToLower(strings.TrimSpace(v.GetString("store.backend"))),
		Postgres: Postgres{
			DSN:         strings.TrimSpace(v.GetString("postgres.dsn")),
			MaxConns:    v.GetInt32("postgres.max_conns"),
			ConnTimeout: v.GetDuration("postgres.conn_timeout"),
		},
		Redis: Redis{
			Addr:     strings.TrimSpace(v.GetString("redis.addr")),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
		},
		Badger: Badger{
			Dir: strings.TrimSpace(v.GetString("badger.dir")),
		},
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks that the selected backend is fully configured
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return ErrEmptyDSN
		}

		if c.Postgres.MaxConns <= 0 {
			return ErrInvalidMaxConns
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return ErrEmptyRedisAddr
		}
	case BackendBadger:
		if c.Badger.Dir == "" {
			return ErrEmptyBadgerDir
		}
	default:
		return errors.Wrap(ErrUnknownBackend, c.Backend)
	}

	return nil
}

// PoolConfig translates postgres settings into a pool config
func (c Config) PoolConfig() *database.PoolConfig {
	return &database.PoolConfig{
		ConnString:     c.Postgres.DSN,
		MaxConns:       c.Postgres.MaxConns,
		ConnectTimeout: c.Postgres.ConnTimeout,
	}
}
