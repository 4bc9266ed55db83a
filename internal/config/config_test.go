package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
server:
  port: 9090
token:
  name: Simulated Asset
  symbol: SIM
  decimals: 8
  initial_supply: "1000"
  max_supply: "5000"
  owner: NOwner000000000000000000000000000000
auth:
  jwt_secret: file-secret
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	cfg, err := LoadFromPath(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Token.Symbol != "SIM" || cfg.Token.MaxSupply != "5000" {
		t.Fatalf("unexpected token config %+v", cfg.Token)
	}
	// Defaults survive a partial file.
	if cfg.Logging.Level != "info" || cfg.RateLimit.RequestsPerSecond != 50 {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Logging, cfg.RateLimit)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_PORT", "7070")
	t.Setenv("LEDGER_JWT_SECRET", "env-secret")

	cfg, err := LoadFromPath(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Fatalf("jwt secret = %q, want env override", cfg.Auth.JWTSecret)
	}
}

func TestValidate(t *testing.T) {
	missingOwner := `
token:
  symbol: SIM
  initial_supply: "1"
  max_supply: "2"
`
	if _, err := LoadFromPath(writeConfig(t, missingOwner)); err == nil {
		t.Fatal("expected validation error for missing owner")
	}

	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
