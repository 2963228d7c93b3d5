package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"account-manager/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendHost   = "host"
)

type Config struct {
	APIBaseURL     string
	StoreBackend   string
	DBPath         string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	NATSURL        string
	ServerPort     string
	LogLevel       string
	DDragonVersion string

	CacheTTL           time.Duration
	RefreshConcurrency int
	RemoteRateLimit    int
	RemoteMaxRetries   uint64
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "https://api-lol-account-manager.vercel.app/api/v1"),
		StoreBackend:   getEnv("STORE_BACKEND", BackendSQLite),
		DBPath:         getEnv("DB_PATH", "accounts.db"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		NATSURL:        getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DDragonVersion: getEnv("DDRAGON_VERSION", "15.13.1"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RefreshConcurrency, err = getEnvInt("REFRESH_CONCURRENCY", 8); err != nil {
		return nil, err
	}
	if cfg.RemoteRateLimit, err = getEnvInt("REMOTE_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	retries, err := getEnvInt("REMOTE_MAX_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	if retries < 0 {
		return nil, fmt.Errorf("REMOTE_MAX_RETRIES must not be negative")
	}
	cfg.RemoteMaxRetries = uint64(retries)

	cfg.CacheTTL = constants.AccountCacheTTL
	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = ttl
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("api_base_url", cfg.APIBaseURL).
		Str("store_backend", cfg.StoreBackend).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Int("refresh_concurrency", cfg.RefreshConcurrency).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendSQLite, BackendRedis, BackendMemory, BackendHost:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.RefreshConcurrency < 1 {
		return fmt.Errorf("REFRESH_CONCURRENCY must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

var Module = fx.Provide(Load)
