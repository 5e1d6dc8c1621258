package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultMaxOpenConns  = 25
	defaultMaxIdleConns  = 5
	defaultJWTTTL        = 24 * time.Hour
	defaultOrderCacheTTL = 5 * time.Minute
	defaultNATSCluster   = "test-cluster"
	defaultNATSSubject   = "orders.events"
	defaultLogLevel      = "info"
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Orders   OrdersConfig
	LogLevel string
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig configures the Postgres pool.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// RedisConfig enables the order read cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	OrderTTL time.Duration
}

// NATSConfig enables order event publication when URL is set.
type NATSConfig struct {
	URL       string
	ClusterID string
	ClientID  string
	Subject   string
}

// OrdersConfig toggles order lifecycle policies.
type OrdersConfig struct {
	RestockOnCancel bool
}

// ValidationError lists required settings that are missing or malformed.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the offending field names.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Load reads .env files (when present) and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from the supplied lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		Server: ServerConfig{
			Port:         r.str("APP_PORT", defaultPort),
			ReadTimeout:  r.duration("HTTP_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: r.duration("HTTP_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  r.duration("HTTP_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Database: DatabaseConfig{
			URL:          r.str("DATABASE_URL", ""),
			MaxOpenConns: r.integer("DB_MAX_OPEN_CONNS", defaultMaxOpenConns),
			MaxIdleConns: r.integer("DB_MAX_IDLE_CONNS", defaultMaxIdleConns),
		},
		Auth: AuthConfig{
			JWTSecret: r.str("JWT_SECRET", ""),
			TokenTTL:  r.duration("JWT_TTL", defaultJWTTTL),
		},
		Redis: RedisConfig{
			Addr:     r.str("REDIS_ADDR", ""),
			Password: r.str("REDIS_PASSWORD", ""),
			DB:       r.integer("REDIS_DB", 0),
			OrderTTL: r.duration("ORDER_CACHE_TTL", defaultOrderCacheTTL),
		},
		NATS: NATSConfig{
			URL:       r.str("NATS_URL", ""),
			ClusterID: r.str("NATS_CLUSTER_ID", defaultNATSCluster),
			ClientID:  r.str("NATS_CLIENT_ID", ""),
			Subject:   r.str("NATS_SUBJECT", defaultNATSSubject),
		},
		Orders: OrdersConfig{
			RestockOnCancel: r.boolean("ORDER_RESTOCK_ON_CANCEL", true),
		},
		LogLevel: r.str("LOG_LEVEL", defaultLogLevel),
	}

	if cfg.Database.URL == "" {
		r.invalid = append(r.invalid, "DATABASE_URL")
	}
	if cfg.Auth.JWTSecret == "" {
		r.invalid = append(r.invalid, "JWT_SECRET")
	}
	if len(r.invalid) > 0 {
		return Config{}, &ValidationError{fields: r.invalid}
	}
	return cfg, nil
}

type reader struct {
	lookup  func(string) (string, bool)
	invalid []string
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		r.invalid = append(r.invalid, key)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.invalid = append(r.invalid, key)
		return def
	}
	return d
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.invalid = append(r.invalid, key)
		return def
	}
	return b
}
