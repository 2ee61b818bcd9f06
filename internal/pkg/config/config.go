package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store backends selectable through BOARD_STORE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

type Config struct {
	APIURL      string        `env:"BOARD_API_URL,      default=http://localhost:8080"`
	HTTPTimeout time.Duration `env:"BOARD_HTTP_TIMEOUT, default=10s"`
	Store       string        `env:"BOARD_STORE,        default=file"`
	StorePath   string        `env:"BOARD_STORE_PATH"`
	LoginView   string        `env:"BOARD_LOGIN_VIEW,   default=/login"`
	LogLevel    string        `env:"LOG_LEVEL,          default=info"`
	LogPretty   bool          `env:"LOG_PRETTY,         default=false"`

	Redis RedisConfig
	Stub  StubConfig
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,   default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,     default=0"`
	Prefix   string `env:"REDIS_PREFIX, default=board:session:"`
}

// StubConfig configures the stand-in board API served by `boardctl stub`.
type StubConfig struct {
	Port             string        `env:"STUB_PORT,               default=8080"`
	JWTSecret        string        `env:"STUB_JWT_SECRET,         default=stub-secret"`
	MongoURI         string        `env:"STUB_MONGO_URI,          default=mongodb://localhost:27017"`
	MongoDB          string        `env:"STUB_MONGO_DB,           default=community_board"`
	MongoTimeout     time.Duration `env:"STUB_MONGO_TIMEOUT,      default=10s"`
	MongoPingTimeout time.Duration `env:"STUB_MONGO_PING_TIMEOUT, default=2s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	switch cfg.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return nil, fmt.Errorf("BOARD_STORE: unknown backend %q", cfg.Store)
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("BOARD_HTTP_TIMEOUT: must be positive, got %s", cfg.HTTPTimeout)
	}
	return &cfg, nil
}

// StateFile returns the file backing the file store, defaulting to
// ~/.boardctl/state.json.
func (c *Config) StateFile() (string, error) {
	if c.StorePath != "" {
		return c.StorePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve state file: %w", err)
	}
	return filepath.Join(home, ".boardctl", "state.json"), nil
}
