package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"property-chat/internal/models"
)

// postgresStore writes to the tables created by database.PostgresClient.EnsureSchema.
type postgresStore struct {
	db  *sql.DB
	now func() time.Time
}

const (
	sessionColumns = `id, visitor_id, user_id, context, lead_captured, handoff_to_agent, agent_id, started_at, ended_at, updated_at`
	messageColumns = `id, session_id, role, content, metadata, created_at`
	leadColumns    = `id, session_id, source, phone, status, context, crm_id, created_at, updated_at`
)

func (s *postgresStore) CreateSession(ctx context.Context, sess *models.ChatSession) error {
	now := s.now()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = now
	}
	sess.UpdatedAt = now

	raw, err := marshalJSONB(sess.Context)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, visitor_id, user_id, context, lead_captured, started_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, nullString(sess.VisitorID), nullString(sess.UserID), raw, sess.LeadCaptured, sess.StartedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *postgresStore) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = $1`, id)

	var (
		sess                     models.ChatSession
		visitorID, userID, agent sql.NullString
		rawContext               []byte
		endedAt                  sql.NullTime
	)
	err := row.Scan(&sess.ID, &visitorID, &userID, &rawContext, &sess.LeadCaptured,
		&sess.HandedOff, &agent, &sess.StartedAt, &endedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	sess.VisitorID = visitorID.String
	sess.UserID = userID.String
	sess.AgentID = agent.String
	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	if sess.Context, err = unmarshalJSONB(rawContext); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *postgresStore) UpdateSessionContext(ctx context.Context, id string, sessionCtx map[string]interface{}, leadCaptured bool) error {
	raw, err := marshalJSONB(sessionCtx)
	if err != nil {
		return err
	}
	return s.execOne(ctx, "update session context",
		`UPDATE chat_sessions SET context = $2, lead_captured = lead_captured OR $3, updated_at = $4 WHERE id = $1`,
		id, raw, leadCaptured, s.now())
}

func (s *postgresStore) MarkHandoff(ctx context.Context, id, agentID string) error {
	return s.execOne(ctx, "mark handoff",
		`UPDATE chat_sessions SET handoff_to_agent = TRUE, agent_id = $2, updated_at = $3 WHERE id = $1`,
		id, nullString(agentID), s.now())
}

func (s *postgresStore) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	return s.execOne(ctx, "end session",
		`UPDATE chat_sessions SET ended_at = $2, updated_at = $3 WHERE id = $1`,
		id, endedAt, s.now())
}

func (s *postgresStore) AppendMessage(ctx context.Context, m *models.ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	raw, err := marshalJSONB(m.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (`+messageColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SessionID, m.Role, m.Content, raw, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *postgresStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+messageColumns+` FROM (
				SELECT `+messageColumns+` FROM chat_messages WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2
			) recent ORDER BY created_at ASC`,
			sessionID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+messageColumns+` FROM chat_messages WHERE session_id = $1 ORDER BY created_at ASC`,
			sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var (
			m   models.ChatMessage
			raw []byte
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &raw, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if m.Metadata, err = unmarshalJSONB(raw); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func (s *postgresStore) CreateLead(ctx context.Context, l *models.Lead) error {
	now := s.now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	raw, err := marshalJSONB(l.Context)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (session_id, phone) DO NOTHING`,
		l.ID, nullString(l.SessionID), l.Source, l.Phone, l.Status, raw, nullString(l.CRMID), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *postgresStore) LeadExists(ctx context.Context, sessionID, phone string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE session_id = $1 AND phone = $2)`,
		sessionID, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lead: %w", err)
	}
	return exists, nil
}

func (s *postgresStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	var (
		l          models.Lead
		sessionID  sql.NullString
		crmID      sql.NullString
		rawContext []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id).
		Scan(&l.ID, &sessionID, &l.Source, &l.Phone, &l.Status, &rawContext, &crmID, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select lead: %w", err)
	}

	l.SessionID = sessionID.String
	l.CRMID = crmID.String
	if l.Context, err = unmarshalJSONB(rawContext); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *postgresStore) UpdateLeadStatus(ctx context.Context, id, status, crmID string) error {
	return s.execOne(ctx, "update lead status",
		`UPDATE leads SET status = $2, crm_id = COALESCE($3, crm_id), updated_at = $4 WHERE id = $1`,
		id, status, nullString(crmID), s.now())
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}

// execOne runs an UPDATE and maps zero affected rows to ErrNotFound.
func (s *postgresStore) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func marshalJSONB(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		m = map[string]interface{}{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	return raw, nil
}

func unmarshalJSONB(raw []byte) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode jsonb: %w", err)
	}
	return out, nil
}
