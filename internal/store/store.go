// Package store persists chat sessions, transcripts and captured leads.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"property-chat/internal/models"

	"github.com/supabase-community/supabase-go"
)

var (
	// ErrNotFound is returned by mutations that target a missing row.
	ErrNotFound         = errors.New("store: not found")
	// ErrDuplicate is returned by CreateLead when the (session, phone) pair
	// already has a lead.
	ErrDuplicate        = errors.New("store: duplicate")
	ErrInvalidConfig    = errors.New("store: invalid configuration")
	ErrInvalidStoreType = errors.New("store: unknown driver")
)

// Store is the persistence boundary of the chat service.
type Store interface {
	// CreateSession inserts a new session row.
	CreateSession(ctx context.Context, s *models.ChatSession) error

	// GetSession returns nil, nil when the session does not exist.
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)

	// UpdateSessionContext overwrites the stored context. Last write wins.
	UpdateSessionContext(ctx context.Context, id string, sessionCtx map[string]interface{}, leadCaptured bool) error

	MarkHandoff(ctx context.Context, id, agentID string) error
	EndSession(ctx context.Context, id string, endedAt time.Time) error

	AppendMessage(ctx context.Context, m *models.ChatMessage) error

	// ListMessages returns the transcript oldest first. limit <= 0 means all.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)

	CreateLead(ctx context.Context, l *models.Lead) error
	LeadExists(ctx context.Context, sessionID, phone string) (bool, error)

	// GetLead returns nil, nil when the lead does not exist.
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	UpdateLeadStatus(ctx context.Context, id, status, crmID string) error

	Ping(ctx context.Context) error
	Close() error
}

// Driver names accepted by storage.driver.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverPostgres Driver = "postgres"
	DriverSupabase Driver = "supabase"
)

type storeConfig struct {
	db       *sql.DB
	supabase *supabase.Client
	now      func() time.Time
}

// Option configures NewStore.
type Option func(*storeConfig)

// WithDB supplies the connection used by the postgres driver.
func WithDB(db *sql.DB) Option {
	return func(c *storeConfig) { c.db = db }
}

// WithSupabaseClient supplies the client used by the supabase driver.
func WithSupabaseClient(client *supabase.Client) Option {
	return func(c *storeConfig) { c.supabase = client }
}

// WithClock overrides time.Now for timestamps the store assigns.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) { c.now = now }
}

// NewStore creates a Store for the given driver.
func NewStore(driver Driver, opts ...Option) (Store, error) {
	cfg := &storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverMemory:
		return newMemoryStore(cfg.now), nil

	case DriverPostgres:
		if cfg.db == nil {
			return nil, ErrInvalidConfig
		}
		return &postgresStore{db: cfg.db, now: cfg.now}, nil

	case DriverSupabase:
		if cfg.supabase == nil {
			return nil, ErrInvalidConfig
		}
		return &supabaseStore{client: cfg.supabase, now: cfg.now}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
