package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const validExchangeYAML = `
port: 9000
admin_addr: "127.0.0.1:9100"
ingress_queue_capacity: 1024
publish_queue_capacity: 1024
log_queue_capacity: 1024
tickers:
  - ticker_id: 1
    symbol: ABC
    book_capacity: 4096
circuit_breaker:
  max_requests: 5
  interval: 30s
  timeout: 10s
  failure_ratio: 0.5
rate_limit:
  requests_per_second: 1000
  burst: 100
`

func TestLoadExchangeConfigValid(t *testing.T) {
	path := writeTempYAML(t, validExchangeYAML)
	cfg, err := LoadExchangeConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 || len(cfg.Tickers) != 1 || cfg.Tickers[0].Symbol != "ABC" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadExchangeConfigMissingRequiredFieldFails(t *testing.T) {
	path := writeTempYAML(t, "port: 9000\n")
	if _, err := LoadExchangeConfig(path); err == nil {
		t.Fatal("expected validation error for missing required fields")
	}
}

func TestExchangeEnvOverridesPort(t *testing.T) {
	path := writeTempYAML(t, validExchangeYAML)
	t.Setenv("TRADSYS_PORT", "9999")
	cfg, err := LoadExchangeConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9999 {
		t.Fatalf("expected env override to win, got port=%d", cfg.Port)
	}
}

const validClientYAML = `
host: "127.0.0.1"
port: 9000
admin_addr: "127.0.0.1:9200"
client_id: 1
ticker: 1
strategy: market-maker
feature_alpha: 0.2
risk:
  max_order_qty: 1000
  max_position: 5000
  max_loss: 10000
  max_open_orders: 10
market_maker:
  half_spread: 50
  base_qty: 100
  tolerance: 5
liquidity_taker:
  signal_threshold: 0.6
  base_qty: 100
`

func TestLoadClientConfigValid(t *testing.T) {
	path := writeTempYAML(t, validClientYAML)
	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Strategy != "market-maker" || cfg.Risk.MaxOpenOrders != 10 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadClientConfigInvalidStrategyFails(t *testing.T) {
	path := writeTempYAML(t, validClientYAML+"\nstrategy: not-a-real-strategy\n")
	if _, err := LoadClientConfig(path); err == nil {
		t.Fatal("expected validation error for an invalid strategy")
	}
}
