package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLen = 32

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Sinergy SinergyConfig
	Session SessionConfig
	Gate    GateConfig
	Chat    ChatConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// SinergyConfig points at the remote Sinergy REST API.
type SinergyConfig struct {
	URL     string        `env:"SINERGY_API_URL,     default=http://localhost:3000"`
	Timeout time.Duration `env:"SINERGY_API_TIMEOUT, default=10s"`
}

type SessionConfig struct {
	Secret        string        `env:"SESSION_SECRET"`
	RememberTTL   time.Duration `env:"REMEMBER_TTL,  default=720h"`
	SessionTTL    time.Duration `env:"SESSION_TTL,   default=12h"`
	SecureCookies bool          `env:"COOKIE_SECURE, default=false"`
}

type GateConfig struct {
	// FallbackPages stay reachable while the permission lookup is failing.
	// Empty keeps the built-in list.
	FallbackPages []string `env:"GATE_FALLBACK_PAGES"`
	// PagesDir overrides the embedded page bodies when set.
	PagesDir string `env:"PAGES_DIR"`
	// RoutesFile overrides the built-in page access table when set.
	RoutesFile string `env:"ROUTES_FILE"`
}

type ChatConfig struct {
	PresenceInterval time.Duration `env:"CHAT_PRESENCE_INTERVAL, default=5s"`
	MessageInterval  time.Duration `env:"CHAT_MESSAGE_INTERVAL,  default=3s"`
	Backoff          bool          `env:"CHAT_BACKOFF,           default=false"`
	BackoffMax       time.Duration `env:"CHAT_BACKOFF_MAX,       default=1m"`
}

type MongoConfig struct {
	URI         string        `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DB,            default=sinergy_web"`
	Timeout     time.Duration `env:"MONGO_TIMEOUT,       default=10s"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	TLS      bool          `env:"REDIS_TLS,      default=false"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

// IsDevelopment reports whether the process runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Sinergy.URL == "" {
		errs = append(errs, errors.New("SINERGY_API_URL is required"))
	}
	if !c.IsDevelopment() && len(c.Session.Secret) < minSecretLen {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must have at least %d characters", minSecretLen))
	}
	if c.Chat.PresenceInterval <= 0 || c.Chat.MessageInterval <= 0 {
		errs = append(errs, errors.New("chat intervals must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
