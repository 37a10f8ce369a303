package matchlistings

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxJobsActive   int           `mapstructure:"max_jobs_active"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Index           string        `mapstructure:"index"`
	Size            int           `mapstructure:"size"`
	BudgetTolerance float64       `mapstructure:"budget_tolerance"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		MaxJobsActive:   5,
		Timeout:         10 * time.Second,
		Index:           "listings",
		Size:            5,
		BudgetTolerance: 0.10,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Index == "" {
		return fmt.Errorf("index is required")
	}
	if c.Size <= 0 || c.Size > 50 {
		return fmt.Errorf("size must be within 1..50")
	}
	if c.BudgetTolerance < 0 || c.BudgetTolerance >= 1 {
		return fmt.Errorf("budget_tolerance must be within [0,1)")
	}
	return nil
}
