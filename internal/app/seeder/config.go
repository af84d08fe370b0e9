package seeder

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds demo property seeding settings.
type Config struct {
	// PropertyID fixes the seeded property; empty generates one.
	PropertyID string `yaml:"property_id"  env:"SEEDER_PROPERTY_ID"`
	// StartDate is the first priced day (YYYY-MM-DD); empty means today.
	StartDate   string `yaml:"start_date"   env:"SEEDER_START_DATE"`
	HorizonDays int    `yaml:"horizon_days" env:"SEEDER_HORIZON_DAYS" env-default:"30"`
	BasePrice   string `yaml:"base_price"   env:"SEEDER_BASE_PRICE"   env-default:"150.00"`
	BatchSize   int    `yaml:"batch_size"   env:"SEEDER_BATCH_SIZE"   env-default:"500"`
	DryRun      bool   `yaml:"dry_run"      env:"SEEDER_DRY_RUN"`
}

// LoadConfig reads seeder configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("seeder config: read %s: %w", path, err)
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("seeder config: file %s not found", path)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("seeder config: read env: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns the env-default values without reading the environment.
func DefaultConfig() Config {
	return Config{HorizonDays: 30, BasePrice: "150.00", BatchSize: 500}
}
