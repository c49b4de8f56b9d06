// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Chain    ChainConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig selects the optional Postgres record store. When URL is
// empty the server runs on the in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables rate limiting when URL is set.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// AIConfig points at the hosted text-generation inference endpoint used for
// energy forecasts. An empty Token disables the upstream call; the forecast
// service then always takes the computed fallback path.
type AIConfig struct {
	Token   string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// ChainConfig describes the deployed GreenStakeDEX contract and the Pyth
// oracle on Sepolia. RPCURL empty means on-chain reads/writes are disabled.
type ChainConfig struct {
	RPCURL          string
	ChainID         int64
	ContractAddress string
	PythAddress     string
	PriceFeedID     string
	HermesURL       string
	PrivateKey      string
	RequestTimeout  time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "5000"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      normalizeRedisURL(getEnv("REDIS_URL", "")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		AI: AIConfig{
			Token:   getEnv("HF_TOKEN", ""),
			Model:   getEnv("HF_MODEL", "gpt2"),
			BaseURL: getEnv("HF_API_URL", "https://api-inference.huggingface.co/models"),
			Timeout: getDurationEnv("HF_TIMEOUT", 10*time.Second),
		},
		Chain: ChainConfig{
			RPCURL:          getEnv("CHAIN_RPC_URL", ""),
			ChainID:         int64(getIntEnv("CHAIN_ID", 11155111)), // Sepolia
			ContractAddress: getEnv("CONTRACT_ADDRESS", "0x4B3E4f81B1Bc7B48E3D419860A10a953f3217D26"),
			PythAddress:     getEnv("PYTH_CONTRACT_ADDRESS", "0x2880aB155794e7179c9eE2e38200202908C17B43"),
			PriceFeedID:     getEnv("ETH_USD_PRICE_ID", "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"),
			HermesURL:       getEnv("PYTH_HERMES_URL", "https://hermes.pyth.network"),
			PrivateKey:      getEnv("CHAIN_PRIVATE_KEY", ""),
			RequestTimeout:  getDurationEnv("CHAIN_REQUEST_TIMEOUT", 15*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func normalizeRedisURL(url string) string {
	// Strip redis:// or redis+tls:// scheme if present
	if strings.HasPrefix(url, "redis+tls://") {
		return url[len("redis+tls://"):]
	}
	if strings.HasPrefix(url, "redis://") {
		return url[len("redis://"):]
	}
	return url
}
