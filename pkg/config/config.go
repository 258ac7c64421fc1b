package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	PriceLookupTimeout time.Duration
	StoreRetryMax      uint64
	RateLimit          string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("PRICE_LOOKUP_TIMEOUT", "5s")
	viper.SetDefault("STORE_RETRY_MAX", 3)
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.PriceLookupTimeout = viper.GetDuration("PRICE_LOOKUP_TIMEOUT")
	cfg.StoreRetryMax = viper.GetUint64("STORE_RETRY_MAX")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
