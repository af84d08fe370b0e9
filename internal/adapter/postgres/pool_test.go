package postgres

import (
	"testing"
	"time"

	"github.com/heartmarshall/pms-backend/internal/config"
)

func TestPoolConfig(t *testing.T) {
	t.Parallel()

	cfg, err := poolConfig(config.DatabaseConfig{
		DSN:              "postgres://u:p@localhost:5432/pms",
		MaxConns:         12,
		MinConns:         2,
		MaxConnLifetime:  time.Hour,
		MaxConnIdleTime:  time.Minute,
		ApplicationName:  "pms-test",
		StatementTimeout: 1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}

	if cfg.MaxConns != 12 || cfg.MinConns != 2 {
		t.Errorf("conns: got %d/%d, want 12/2", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxConnLifetime != time.Hour || cfg.MaxConnIdleTime != time.Minute {
		t.Errorf("lifetimes: got %v/%v", cfg.MaxConnLifetime, cfg.MaxConnIdleTime)
	}
	params := cfg.ConnConfig.RuntimeParams
	if params["application_name"] != "pms-test" {
		t.Errorf("application_name = %q", params["application_name"])
	}
	if params["statement_timeout"] != "1500" {
		t.Errorf("statement_timeout = %q, want 1500", params["statement_timeout"])
	}
}

func TestPoolConfig_NoStatementTimeout(t *testing.T) {
	t.Parallel()

	cfg, err := poolConfig(config.DatabaseConfig{DSN: "postgres://u:p@localhost:5432/pms", MaxConns: 1})
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["statement_timeout"]; ok {
		t.Error("statement_timeout must not be set when zero")
	}
}

func TestPoolConfig_BadDSN(t *testing.T) {
	t.Parallel()

	if _, err := poolConfig(config.DatabaseConfig{DSN: "postgres://%zz"}); err == nil {
		t.Fatal("expected an error for a malformed DSN")
	}
}
