// Package config loads and validates the YAML-plus-environment
// configuration for the exchange and trading-client processes. Layout
// and override strategy (YAML file, then a small set of TRADSYS_-
// prefixed environment overrides, then struct-tag validation) mirrors
// the teacher's configuration loader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// TickerConfig names one instrument and the resident-order capacity of
// its book.
type TickerConfig struct {
	TickerId     uint32 `yaml:"ticker_id" validate:"required"`
	Symbol       string `yaml:"symbol" validate:"required"`
	BookCapacity int    `yaml:"book_capacity" validate:"required,min=2"`
}

// CircuitBreakerConfig configures the gobreaker wrapping session writes.
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests" validate:"required"`
	Interval     time.Duration `yaml:"interval" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" validate:"required"`
	FailureRatio float64       `yaml:"failure_ratio" validate:"required,gt=0,lte=1"`
}

// RateLimitConfig configures the per-session inbound request limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `yaml:"burst" validate:"required,min=1"`
}

// ExchangeConfig is the exchange process's full configuration.
type ExchangeConfig struct {
	Port                 int                  `yaml:"port" validate:"required,min=1,max=65535"`
	AdminAddr            string               `yaml:"admin_addr" validate:"required"`
	Tickers              []TickerConfig       `yaml:"tickers" validate:"required,min=1,dive"`
	IngressQueueCapacity int                  `yaml:"ingress_queue_capacity" validate:"required,min=2"`
	PublishQueueCapacity int                  `yaml:"publish_queue_capacity" validate:"required,min=2"`
	LogQueueCapacity     int                  `yaml:"log_queue_capacity" validate:"required,min=2"`
	CircuitBreaker       CircuitBreakerConfig `yaml:"circuit_breaker" validate:"required"`
	RateLimit            RateLimitConfig      `yaml:"rate_limit" validate:"required"`
}

// RiskConfig is the client's immutable-for-the-session risk limits.
type RiskConfig struct {
	MaxOrderQty   uint32  `yaml:"max_order_qty" validate:"required"`
	MaxPosition   int64   `yaml:"max_position" validate:"required"`
	MaxLoss       float64 `yaml:"max_loss" validate:"required,gt=0"`
	MaxOpenOrders int     `yaml:"max_open_orders" validate:"required"`
}

// MarketMakerConfig parameterizes the market-making strategy.
type MarketMakerConfig struct {
	HalfSpread int64  `yaml:"half_spread" validate:"required"`
	BaseQty    uint32 `yaml:"base_qty" validate:"required"`
	Tolerance  int64  `yaml:"tolerance" validate:"gte=0"`
}

// LiquidityTakerConfig parameterizes the liquidity-taking strategy.
type LiquidityTakerConfig struct {
	SignalThreshold float64 `yaml:"signal_threshold" validate:"required,gt=0,lte=1"`
	BaseQty         uint32  `yaml:"base_qty" validate:"required"`
}

// ClientConfig is the trading client process's full configuration.
type ClientConfig struct {
	Host           string               `yaml:"host" validate:"required"`
	Port           int                  `yaml:"port" validate:"required,min=1,max=65535"`
	AdminAddr      string               `yaml:"admin_addr" validate:"required"`
	ClientId       uint32               `yaml:"client_id" validate:"required"`
	Ticker         uint32               `yaml:"ticker" validate:"required"`
	Strategy       string               `yaml:"strategy" validate:"required,oneof=market-maker liquidity-taker"`
	FeatureAlpha   float64              `yaml:"feature_alpha" validate:"required,gt=0,lt=1"`
	Risk           RiskConfig           `yaml:"risk" validate:"required"`
	MarketMaker    MarketMakerConfig    `yaml:"market_maker"`
	LiquidityTaker LiquidityTakerConfig `yaml:"liquidity_taker"`
}

// LoadExchangeConfig reads an ExchangeConfig from path, applies
// TRADSYS_-prefixed environment overrides, then validates the result.
func LoadExchangeConfig(path string) (*ExchangeConfig, error) {
	var cfg ExchangeConfig
	if err := readYAML(path, &cfg); err != nil {
		return nil, err
	}
	applyExchangeEnvOverrides(&cfg)
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid exchange config: %w", err)
	}
	return &cfg, nil
}

// LoadClientConfig reads a ClientConfig from path, applies
// TRADSYS_-prefixed environment overrides, then validates the result.
func LoadClientConfig(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := readYAML(path, &cfg); err != nil {
		return nil, err
	}
	applyClientEnvOverrides(&cfg)
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid client config: %w", err)
	}
	return &cfg, nil
}

func readYAML(path string, out interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func applyExchangeEnvOverrides(cfg *ExchangeConfig) {
	if v, ok := os.LookupEnv("TRADSYS_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v, ok := os.LookupEnv("TRADSYS_ADMIN_ADDR"); ok {
		cfg.AdminAddr = v
	}
}

func applyClientEnvOverrides(cfg *ClientConfig) {
	if v, ok := os.LookupEnv("TRADSYS_HOST"); ok {
		cfg.Host = v
	}
	if v, ok := os.LookupEnv("TRADSYS_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v, ok := os.LookupEnv("TRADSYS_CLIENT_ID"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.ClientId = uint32(n)
		}
	}
	if v, ok := os.LookupEnv("TRADSYS_STRATEGY"); ok {
		cfg.Strategy = v
	}
	if v, ok := os.LookupEnv("TRADSYS_ADMIN_ADDR"); ok {
		cfg.AdminAddr = v
	}
}
