package syncleadcrm

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LeadSource    string        `mapstructure:"lead_source"`
	DefaultCity   string        `mapstructure:"default_city"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       20 * time.Second,
		LeadSource:    "Website Chat",
		DefaultCity:   "Lucknow",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.LeadSource == "" {
		return fmt.Errorf("lead_source is required")
	}
	return nil
}
