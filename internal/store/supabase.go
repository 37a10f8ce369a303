package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"property-chat/internal/models"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// supabaseStore talks to the same tables through the PostgREST API.
type supabaseStore struct {
	client *supabase.Client
	now    func() time.Time
}

type sessionRow struct {
	ID           string                 `json:"id"`
	VisitorID    *string                `json:"visitor_id,omitempty"`
	UserID       *string                `json:"user_id,omitempty"`
	Context      map[string]interface{} `json:"context"`
	LeadCaptured bool                   `json:"lead_captured"`
	HandedOff    bool                   `json:"handoff_to_agent"`
	AgentID      *string                `json:"agent_id,omitempty"`
	StartedAt    time.Time              `json:"started_at"`
	EndedAt      *time.Time             `json:"ended_at,omitempty"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type messageRow struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
}

type leadRow struct {
	ID        string                 `json:"id"`
	SessionID *string                `json:"session_id,omitempty"`
	Source    string                 `json:"source"`
	Phone     string                 `json:"phone"`
	Status    string                 `json:"status"`
	Context   map[string]interface{} `json:"context"`
	CRMID     *string                `json:"crm_id,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (s *supabaseStore) CreateSession(ctx context.Context, sess *models.ChatSession) error {
	now := s.now()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = now
	}
	sess.UpdatedAt = now

	row := sessionRow{
		ID:           sess.ID,
		VisitorID:    optional(sess.VisitorID),
		UserID:       optional(sess.UserID),
		Context:      cloneMap(sess.Context),
		LeadCaptured: sess.LeadCaptured,
		StartedAt:    sess.StartedAt,
		UpdatedAt:    sess.UpdatedAt,
	}
	if _, _, err := s.client.From("chat_sessions").Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *supabaseStore) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	var rows []sessionRow
	_, err := s.client.From("chat_sessions").
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	return &models.ChatSession{
		ID:           r.ID,
		VisitorID:    deref(r.VisitorID),
		UserID:       deref(r.UserID),
		Context:      cloneMap(r.Context),
		LeadCaptured: r.LeadCaptured,
		HandedOff:    r.HandedOff,
		AgentID:      deref(r.AgentID),
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func (s *supabaseStore) UpdateSessionContext(ctx context.Context, id string, sessionCtx map[string]interface{}, leadCaptured bool) error {
	patch := map[string]interface{}{
		"context":    cloneMap(sessionCtx),
		"updated_at": s.now(),
	}
	// Never clear a captured lead flag.
	if leadCaptured {
		patch["lead_captured"] = true
	}
	return s.updateOne("chat_sessions", id, patch, "update session context")
}

func (s *supabaseStore) MarkHandoff(ctx context.Context, id, agentID string) error {
	return s.updateOne("chat_sessions", id, map[string]interface{}{
		"handoff_to_agent": true,
		"agent_id":         optional(agentID),
		"updated_at":       s.now(),
	}, "mark handoff")
}

func (s *supabaseStore) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	return s.updateOne("chat_sessions", id, map[string]interface{}{
		"ended_at":   endedAt,
		"updated_at": s.now(),
	}, "end session")
}

func (s *supabaseStore) AppendMessage(ctx context.Context, m *models.ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	row := messageRow{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      m.Role,
		Content:   m.Content,
		Metadata:  cloneMap(m.Metadata),
		CreatedAt: m.CreatedAt,
	}
	if _, _, err := s.client.From("chat_messages").Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *supabaseStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	query := s.client.From("chat_messages").
		Select("*", "", false).
		Eq("session_id", sessionID)
	if limit > 0 {
		query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false}).Limit(limit, "")
	} else {
		query = query.Order("created_at", &postgrest.OrderOpts{Ascending: true})
	}

	var rows []messageRow
	if _, err := query.ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}

	out := make([]models.ChatMessage, len(rows))
	for i, r := range rows {
		idx := i
		if limit > 0 {
			idx = len(rows) - 1 - i
		}
		out[idx] = models.ChatMessage{
			ID:        r.ID,
			SessionID: r.SessionID,
			Role:      r.Role,
			Content:   r.Content,
			Metadata:  cloneMap(r.Metadata),
			CreatedAt: r.CreatedAt,
		}
	}
	return out, nil
}

func (s *supabaseStore) CreateLead(ctx context.Context, l *models.Lead) error {
	now := s.now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	row := leadRow{
		ID:        l.ID,
		SessionID: optional(l.SessionID),
		Source:    l.Source,
		Phone:     l.Phone,
		Status:    l.Status,
		Context:   cloneMap(l.Context),
		CRMID:     optional(l.CRMID),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if _, _, err := s.client.From("leads").Insert(row, false, "", "minimal", "").Execute(); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (s *supabaseStore) LeadExists(ctx context.Context, sessionID, phone string) (bool, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := s.client.From("leads").
		Select("id", "", false).
		Eq("session_id", sessionID).
		Eq("phone", phone).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return false, fmt.Errorf("check lead: %w", err)
	}
	return len(rows) > 0, nil
}

func (s *supabaseStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	var rows []leadRow
	_, err := s.client.From("leads").
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("select lead: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	return &models.Lead{
		ID:        r.ID,
		SessionID: deref(r.SessionID),
		Source:    r.Source,
		Phone:     r.Phone,
		Status:    r.Status,
		Context:   cloneMap(r.Context),
		CRMID:     deref(r.CRMID),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func (s *supabaseStore) UpdateLeadStatus(ctx context.Context, id, status, crmID string) error {
	patch := map[string]interface{}{
		"status":     status,
		"updated_at": s.now(),
	}
	if crmID != "" {
		patch["crm_id"] = crmID
	}
	return s.updateOne("leads", id, patch, "update lead status")
}

func (s *supabaseStore) Ping(ctx context.Context) error {
	if _, _, err := s.client.From("chat_sessions").Select("id", "", false).Limit(1, "").Execute(); err != nil {
		return fmt.Errorf("supabase ping failed: %w", err)
	}
	return nil
}

// Close is a no-op; the REST client holds no connections.
func (s *supabaseStore) Close() error {
	return nil
}

func (s *supabaseStore) updateOne(table, id string, patch map[string]interface{}, op string) error {
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := s.client.From(table).
		Update(patch, "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return nil
}

// isUniqueViolation matches PostgREST's "(23505) duplicate key ..." errors.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "(23505)")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
