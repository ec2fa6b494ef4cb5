package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultExchangeRate = 0.037
	DefaultCurrencyCode = "BRL"
)

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	SearchTimeout time.Duration `yaml:"search_timeout"`
}

// UpstreamConfig describes the marketplace search endpoint and how politely to call it.
type UpstreamConfig struct {
	BaseURL           string        `yaml:"base_url"`
	SearchPath        string        `yaml:"search_path"`
	UserAgent         string        `yaml:"user_agent"`
	Referer           string        `yaml:"referer"`
	Origin            string        `yaml:"origin"`
	PriceRange        string        `yaml:"price_range"`
	Timeout           time.Duration `yaml:"timeout"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	BatchSize         int           `yaml:"batch_size"`
	BatchPause        time.Duration `yaml:"batch_pause"`
}

type BreakerConfig struct {
	Threshold int           `yaml:"threshold"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

type CurrencyConfig struct {
	Rate float64 `yaml:"rate"`
	Code string  `yaml:"code"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Currency CurrencyConfig `yaml:"currency"`
	Postgres PostgresConfig `yaml:"postgres"`
	Auth     AuthConfig     `yaml:"auth"`
}

func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:          ":8081",
			SearchTimeout: 20 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:           "https://www.hareruyamtg.com",
			SearchPath:        "/en/products/search/unisearch_api",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			Referer:           "https://www.hareruyamtg.com/en/",
			Origin:            "https://www.hareruyamtg.com",
			PriceRange:        "1~9999999",
			Timeout:           15 * time.Second,
			CacheTTL:          time.Minute,
			RequestsPerSecond: 10,
			BatchSize:         5,
			BatchPause:        200 * time.Millisecond,
		},
		Breaker: BreakerConfig{
			Threshold: 3,
			Cooldown:  5 * time.Minute,
		},
		Currency: CurrencyConfig{
			Rate: DefaultExchangeRate,
			Code: DefaultCurrencyCode,
		},
		Postgres: defaultPostgresConfig(),
	}
}

// LoadConfig reads the YAML file on top of Default and then applies env overrides.
// A missing file is not an error: defaults plus env are a complete configuration.
func LoadConfig(filename string) (*AppConfig, error) {
	config := Default()

	if filename != "" {
		file, err := os.Open(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			defer file.Close()
			decoder := yaml.NewDecoder(file)
			if err := decoder.Decode(config); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", filename, err)
			}
		}
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) applyEnv() {
	c.Server.Addr = getEnv("HTTP_ADDR", c.Server.Addr)
	c.Server.SearchTimeout = getEnvDuration("SEARCH_TIMEOUT", c.Server.SearchTimeout)
	c.Upstream.BaseURL = getEnv("UPSTREAM_BASE_URL", c.Upstream.BaseURL)
	c.Upstream.CacheTTL = getEnvDuration("UPSTREAM_CACHE_TTL", c.Upstream.CacheTTL)
	c.Currency.Rate = getEnvFloat("EXCHANGE_RATE", c.Currency.Rate)
	c.Currency.Code = getEnv("CURRENCY_CODE", c.Currency.Code)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Postgres.applyEnv()
}

func (c *AppConfig) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Currency.Rate <= 0 {
		c.Currency.Rate = DefaultExchangeRate
	}
	if c.Breaker.Threshold <= 0 {
		return fmt.Errorf("breaker.threshold must be positive, got %d", c.Breaker.Threshold)
	}
	if c.Upstream.BatchSize <= 0 {
		c.Upstream.BatchSize = 5
	}
	return nil
}
