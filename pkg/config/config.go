package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	// Ledger connection. Mode is "standalone" (in-process fake ledger
	// seeded with demo produce) or "remote" (HTTP client against LedgerURL).
	LedgerMode string
	LedgerURL  string

	// Identity of the session this daemon runs on behalf of.
	ActorAddress string

	ProductCacheSize int
	ProductCacheTTL  time.Duration

	ProfileDBPath string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		LedgerMode: getEnv("LEDGER_MODE", "standalone"),
		LedgerURL:  getEnv("LEDGER_URL", "http://localhost:8545"),

		ActorAddress: getEnv("ACTOR_ADDRESS", ""),

		ProductCacheSize: getEnvInt("PRODUCT_CACHE_SIZE", 512),
		ProductCacheTTL:  getEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute),

		ProfileDBPath: getEnv("PROFILE_DB_PATH", "profiles.db"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}

	return d
}
