package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the sentiment probe.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	LogLevel        string
	ScoringBaseURL  string
	ScoringTimeout  time.Duration
	BatchWorkers    int
	BatchRateLimit  int
	BatchRateWindow time.Duration
	BatchResultTTL  time.Duration
	RedisURL        string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SENTIMENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Sentiment Probe")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8001")
	v.SetDefault("log.level", "info")
	v.SetDefault("scoring.base_url", "http://localhost:8000")
	v.SetDefault("scoring.timeout", "4s")
	v.SetDefault("batch.workers", 1)
	v.SetDefault("batch.rate_limit", 10)
	v.SetDefault("batch.rate_window", "1m")
	v.SetDefault("batch.result_ttl", "1h")

	timeout, err := parseDuration(v, "scoring.timeout", "4s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid scoring timeout: %w", err)
	}

	rateWindow, err := parseDuration(v, "batch.rate_window", "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid batch rate window: %w", err)
	}

	resultTTL, err := parseDuration(v, "batch.result_ttl", "1h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid batch result ttl: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		ScoringBaseURL:  strings.TrimSpace(v.GetString("scoring.base_url")),
		ScoringTimeout:  timeout,
		BatchWorkers:    v.GetInt("batch.workers"),
		BatchRateLimit:  v.GetInt("batch.rate_limit"),
		BatchRateWindow: rateWindow,
		BatchResultTTL:  resultTTL,
		RedisURL:        v.GetString("redis.url"),
	}

	if cfg.ScoringBaseURL == "" {
		return Config{}, fmt.Errorf("scoring base url must be provided")
	}

	if cfg.ScoringTimeout <= 0 {
		return Config{}, fmt.Errorf("scoring timeout must be positive")
	}

	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 1
	}

	if cfg.BatchRateLimit <= 0 {
		cfg.BatchRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}
