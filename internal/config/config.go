package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL     string
	ServerAddr      string
	ChainRPCURL     string
	VerifyTimeout   time.Duration
	KafkaBrokers    []string
	KafkaTopic      string
	AdminAddresses  []string
	AdminNotifyRule string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "tradeledger")
		pass := getenv("POSTGRES_PASSWORD", "tradeledger_pass")
		db := getenv("POSTGRES_DB", "tradeledger")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	return &Config{
		DatabaseURL:     dsn,
		ServerAddr:      getenv("SERVER_ADDR", "0.0.0.0:8080"),
		ChainRPCURL:     os.Getenv("CHAIN_RPC_URL"),
		VerifyTimeout:   parseDuration(getenv("CHAIN_VERIFY_TIMEOUT", "5s"), 5*time.Second),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getenv("KAFKA_TOPIC", "tradeledger.events"),
		AdminAddresses:  splitList(os.Getenv("ADMIN_ADDRESSES")),
		AdminNotifyRule: os.Getenv("ADMIN_NOTIFY_RULE"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}
