package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
database:
  host: localhost
  user: bridge
  password: secret
  database: bridge
auth:
  jwt_secret: test-secret
ledger:
  owner: "0x1000000000000000000000000000000000000001"
  transaction_manager: "0x1000000000000000000000000000000000000002"
  fee_receiver: "0x1000000000000000000000000000000000000003"
  vault: "0x1000000000000000000000000000000000000004"
  spread_fee_bps: 150
  supported_tokens:
    - address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
      symbol: USDC
      decimals: 6
relay:
  owner: "0x1000000000000000000000000000000000000001"
  fee_token: "0x514910771AF9Ca656af840dff83E8264EcF986CA"
  allowed_chains:
    - selector: 16015286601757825753
      name: sepolia
  supported_tokens:
    - "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Auth.JWTSecret != "test-secret" {
		t.Fatalf("expected jwt secret from file, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Ledger.SpreadFeeBps != 150 {
		t.Fatalf("expected spread fee 150, got %d", cfg.Ledger.SpreadFeeBps)
	}
	if len(cfg.Ledger.SupportedTokens) != 1 || cfg.Ledger.SupportedTokens[0].Decimals != 6 {
		t.Fatalf("unexpected ledger tokens: %+v", cfg.Ledger.SupportedTokens)
	}
	if len(cfg.Relay.AllowedChains) != 1 || cfg.Relay.AllowedChains[0].Selector != 16015286601757825753 {
		t.Fatalf("unexpected relay chains: %+v", cfg.Relay.AllowedChains)
	}

	// Defaults fill everything the file left out
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Auth.MessageMaxAge != 5*time.Minute {
		t.Fatalf("expected default message max age 5m, got %s", cfg.Auth.MessageMaxAge)
	}
	if cfg.Monitoring.MetricsPort != 9090 {
		t.Fatalf("expected default metrics port 9090, got %d", cfg.Monitoring.MetricsPort)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	// No auth section means no jwt_secret
	const incomplete = `
database:
  host: localhost
  user: bridge
  database: bridge
ledger:
  owner: "0x1000000000000000000000000000000000000001"
  transaction_manager: "0x1000000000000000000000000000000000000002"
  fee_receiver: "0x1000000000000000000000000000000000000003"
  vault: "0x1000000000000000000000000000000000000004"
relay:
  owner: "0x1000000000000000000000000000000000000001"
  fee_token: "0x514910771AF9Ca656af840dff83E8264EcF986CA"
`
	if _, err := Load(writeConfig(t, incomplete)); err == nil {
		t.Fatal("expected validation error for missing jwt_secret")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestGetConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "bridge",
		Password: "secret", Database: "bridge", SSLMode: "require",
	}
	want := "host=db.internal port=5432 user=bridge password=secret dbname=bridge sslmode=require"
	if got := db.GetConnectionString(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
