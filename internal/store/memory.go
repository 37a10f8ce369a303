package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"property-chat/internal/models"
)

// memoryStore keeps everything in process. Used by tests and local runs.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatSession
	messages map[string][]models.ChatMessage
	leads    map[string]*models.Lead
	now      func() time.Time
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{
		sessions: make(map[string]*models.ChatSession),
		messages: make(map[string][]models.ChatMessage),
		leads:    make(map[string]*models.Lead),
		now:      now,
	}
}

func (s *memoryStore) CreateSession(ctx context.Context, sess *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = now
	}
	sess.UpdatedAt = now

	stored := *sess
	stored.Context = cloneMap(sess.Context)
	s.sessions[sess.ID] = &stored
	return nil
}

func (s *memoryStore) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	out := *stored
	out.Context = cloneMap(stored.Context)
	return &out, nil
}

func (s *memoryStore) UpdateSessionContext(ctx context.Context, id string, sessionCtx map[string]interface{}, leadCaptured bool) error {
	return s.mutateSession(id, func(sess *models.ChatSession) {
		sess.Context = cloneMap(sessionCtx)
		if leadCaptured {
			sess.LeadCaptured = true
		}
	})
}

func (s *memoryStore) MarkHandoff(ctx context.Context, id, agentID string) error {
	return s.mutateSession(id, func(sess *models.ChatSession) {
		sess.HandedOff = true
		sess.AgentID = agentID
	})
}

func (s *memoryStore) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	return s.mutateSession(id, func(sess *models.ChatSession) {
		t := endedAt
		sess.EndedAt = &t
	})
}

func (s *memoryStore) mutateSession(id string, fn func(*models.ChatSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	fn(sess)
	sess.UpdatedAt = s.now()
	return nil
}

func (s *memoryStore) AppendMessage(ctx context.Context, m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	stored := *m
	stored.Metadata = cloneMap(m.Metadata)
	s.messages[m.SessionID] = append(s.messages[m.SessionID], stored)
	return nil
}

func (s *memoryStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memoryStore) CreateLead(ctx context.Context, l *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	if l.SessionID != "" {
		for _, existing := range s.leads {
			if existing.SessionID == l.SessionID && existing.Phone == l.Phone {
				return ErrDuplicate
			}
		}
	}

	stored := *l
	stored.Context = cloneMap(l.Context)
	s.leads[l.ID] = &stored
	return nil
}

func (s *memoryStore) LeadExists(ctx context.Context, sessionID, phone string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.leads {
		if l.SessionID == sessionID && l.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.leads[id]
	if !ok {
		return nil, nil
	}
	out := *stored
	out.Context = cloneMap(stored.Context)
	return &out, nil
}

func (s *memoryStore) UpdateLeadStatus(ctx context.Context, id, status, crmID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	if crmID != "" {
		l.CRMID = crmID
	}
	l.UpdatedAt = s.now()
	return nil
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
