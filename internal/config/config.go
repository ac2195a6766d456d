package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// SeedProduct is a catalogue entry loaded at startup.
type SeedProduct struct {
	ID    string
	Name  string
	Stock int
	Price decimal.Decimal
}

type Config struct {
	ServiceName     string
	Env             string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogFile         string

	Storage        string
	DatabaseURL    string
	RedisAddr      string
	IdempotencyTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint string

	LowStockThreshold int
	PublishTimeout    time.Duration
	SeedProducts      []SeedProduct
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
			return def
		}
		return v
	}

	cfg := Config{
		ServiceName:       getenvDefault("SERVICE_NAME", "minishop-orders"),
		Env:               getenvDefault("ENV", "dev"),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout:   time.Duration(intVar("SHUTDOWN_TIMEOUT", 10)) * time.Second,
		LogFile:           os.Getenv("LOG_FILE"),
		Storage:           strings.ToLower(getenvDefault("STORAGE", StorageMemory)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		IdempotencyTTL:    time.Duration(intVar("IDEMPOTENCY_TTL", 86400)) * time.Second,
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        getenvDefault("KAFKA_TOPIC", "order.events"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LowStockThreshold: intVar("LOW_STOCK_THRESHOLD", 5),
		PublishTimeout:    time.Duration(intVar("PUBLISH_TIMEOUT_MS", 300)) * time.Millisecond,
	}

	seeds, err := ParseSeedProducts(os.Getenv("SEED_PRODUCTS"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.SeedProducts = seeds

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when STORAGE=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE %q", c.Storage)
	}
	if c.LowStockThreshold < 0 {
		return errors.New("config: LOW_STOCK_THRESHOLD must be zero or greater")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: SHUTDOWN_TIMEOUT must be greater than zero")
	}
	if c.PublishTimeout <= 0 {
		return errors.New("config: PUBLISH_TIMEOUT_MS must be greater than zero")
	}
	return nil
}

// ParseSeedProducts parses "id:name:stock:price" entries separated by ';'.
func ParseSeedProducts(raw string) ([]SeedProduct, error) {
	var out []SeedProduct
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("config: SEED_PRODUCTS entry %q: want id:name:stock:price", entry)
		}
		stock, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("config: SEED_PRODUCTS entry %q: stock: %w", entry, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(parts[3]))
		if err != nil {
			return nil, fmt.Errorf("config: SEED_PRODUCTS entry %q: price: %w", entry, err)
		}
		out = append(out, SeedProduct{
			ID:    strings.TrimSpace(parts[0]),
			Name:  strings.TrimSpace(parts[1]),
			Stock: stock,
			Price: price,
		})
	}
	return out, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
