package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the %s storage driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q (got %q)", DriverPostgres, DriverMemory, c.Storage.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if err := c.ARI.validate(); err != nil {
		return fmt.Errorf("ari: %w", err)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (a *ARIConfig) validate() error {
	if a.MaxRangeDays <= 0 {
		return fmt.Errorf("max_range_days must be > 0 (got %d)", a.MaxRangeDays)
	}
	if a.MaxDerivationDepth <= 0 {
		return fmt.Errorf("max_derivation_depth must be > 0 (got %d)", a.MaxDerivationDepth)
	}
	if strings.TrimSpace(a.EventIDPrefix) == "" {
		return fmt.Errorf("event_id_prefix must not be empty")
	}
	if a.PendingBatchSize <= 0 {
		return fmt.Errorf("pending_batch_size must be > 0 (got %d)", a.PendingBatchSize)
	}
	return nil
}
