package notifysales

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	EmailEnabled  bool          `mapstructure:"email_enabled"`
	SMSEnabled    bool          `mapstructure:"sms_enabled"`
	FromEmail     string        `mapstructure:"from_email"`
	SalesEmail    string        `mapstructure:"sales_email"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       15 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.EmailEnabled && (c.FromEmail == "" || c.SalesEmail == "") {
		return fmt.Errorf("from_email and sales_email are required when email is enabled")
	}
	return nil
}
