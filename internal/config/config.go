package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port string
	Env  string

	DatabaseURL       string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnLifetime string

	RedisAddr string
	RedisDB   int32

	LedgerWSURL   string
	LedgerTimeout time.Duration
	FaucetURL     string

	StablecoinCode   string
	StablecoinIssuer string

	SignerTimeout time.Duration

	JWTIssuer     string
	JWTAudience   string
	JWTSigningKey string
	JWTSessionTTL time.Duration

	WorkerPollInterval time.Duration
	WorkerBatchSize    int32
}

// Load reads configuration from the environment. DATABASE_URL and
// LEDGER_WS_URL have no usable defaults and their absence is fatal.
func Load() (Config, error) {
	cfg := Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("APP_ENV", "local"),

		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        getEnvInt32("DB_MAX_CONNS", 25),
		DBMinConns:        getEnvInt32("DB_MIN_CONNS", 2),
		DBMaxConnLifetime: getEnv("DB_MAX_CONN_LIFETIME", "30m"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisDB:   getEnvInt32("REDIS_DB", 0),

		LedgerWSURL:   os.Getenv("LEDGER_WS_URL"),
		LedgerTimeout: getEnvDuration("LEDGER_TIMEOUT", 20*time.Second),
		FaucetURL:     getEnv("FAUCET_URL", "https://faucet.altnet.rippletest.net/accounts"),

		StablecoinCode:   getEnv("STABLECOIN_CODE", "524C555344000000000000000000000000000000"),
		StablecoinIssuer: getEnv("STABLECOIN_ISSUER", "rQhWct2fv4Vc4KRjRgMrxa8xPN9Zx9iLKV"),

		SignerTimeout: getEnvDuration("SIGNER_TIMEOUT", 30*time.Second),

		JWTIssuer:     getEnv("JWT_ISSUER", "microloan-backend"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "microloan-api"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-insecure-key-change-me"),
		JWTSessionTTL: getEnvDuration("JWT_SESSION_TTL", 12*time.Hour),

		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		WorkerBatchSize:    getEnvInt32("WORKER_BATCH_SIZE", 10),
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(cfg.LedgerWSURL) == "" {
		return Config{}, fmt.Errorf("LEDGER_WS_URL is required")
	}
	if len(cfg.StablecoinCode) != 40 {
		return Config{}, fmt.Errorf("STABLECOIN_CODE must be a 40-character hex asset code")
	}

	return cfg, nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		var out int32
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}
