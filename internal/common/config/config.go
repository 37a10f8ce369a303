// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Chat          ChatConfig              `mapstructure:"chat"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Supabase      SupabaseConfig          `mapstructure:"supabase"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // milliseconds
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Mode           string   `mapstructure:"mode"` // gin mode: debug, release, test
}

type CamundaConfig struct {
	BrokerAddress         string `mapstructure:"broker_address"`
	Enabled               bool   `mapstructure:"enabled"`
	MaxJobsActive         int    `mapstructure:"max_jobs_active"`
	Timeout               int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout        int    `mapstructure:"request_timeout"` // milliseconds
	LeadFollowupProcessID string `mapstructure:"lead_followup_process_id"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	URL           string   `mapstructure:"url"`
	ListingsIndex string   `mapstructure:"listings_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SupabaseConfig is used when storage.driver is "supabase".
type SupabaseConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// StorageConfig selects the session/message/lead store driver.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres, supabase, memory
}

// ChatConfig drives the intent matcher and the session recorder.
type ChatConfig struct {
	AgentName           string   `mapstructure:"agent_name"`
	Greeting            string   `mapstructure:"greeting"`
	SuggestedQuestions  []string `mapstructure:"suggested_questions"`
	CatalogPath         string   `mapstructure:"catalog_path"`
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold"`
	Durability          string   `mapstructure:"durability"` // best_effort or strict
	LeadDedupeTTL       int      `mapstructure:"lead_dedupe_ttl"` // milliseconds
	HistoryLimit        int      `mapstructure:"history_limit"`
	TurnTimeout         int      `mapstructure:"turn_timeout"` // milliseconds
}

// Strict reports whether persistence failures must fail the turn.
func (c ChatConfig) Strict() bool {
	return c.Durability == DurabilityStrict
}

const (
	DurabilityBestEffort = "best_effort"
	DurabilityStrict     = "strict"
)

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// IntegrationConfig holds settings for CRM and AWS notifications.
type IntegrationConfig struct {
	Zoho struct {
		BaseURL   string `mapstructure:"base_url"`
		AuthToken string `mapstructure:"oauth_token"`
		Timeout   int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled    bool   `mapstructure:"enabled"`
			FromEmail  string `mapstructure:"from_email"`
			SalesEmail string `mapstructure:"sales_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds metrics and tracing settings.
type ObservabilityConfig struct {
	MetricsPort     int     `mapstructure:"metrics_port"`
	TracingEndpoint string  `mapstructure:"tracing_endpoint"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
}
