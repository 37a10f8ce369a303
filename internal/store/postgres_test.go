package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"property-chat/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newMockPostgresStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(DriverPostgres, WithDB(db), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s, mock
}

func TestPostgresStore_CreateSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec("INSERT INTO chat_sessions").
		WithArgs("s-1", sql.NullString{String: "v-1", Valid: true}, sql.NullString{},
			[]byte(`{"conversationStage":"greeting"}`), false, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sess := &models.ChatSession{
		ID:        "s-1",
		VisitorID: "v-1",
		Context:   map[string]interface{}{"conversationStage": "greeting"},
	}
	require.NoError(t, s.CreateSession(context.Background(), sess))
	assert.Equal(t, fixedNow, sess.StartedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"id", "visitor_id", "user_id", "context", "lead_captured", "handoff_to_agent",
		"agent_id", "started_at", "ended_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM chat_sessions WHERE id").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"s-1", "v-1", nil, []byte(`{"location":"hazratganj","bedrooms":2}`), true, false,
			nil, fixedNow, nil, fixedNow,
		))

	got, err := s.GetSession(context.Background(), "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v-1", got.VisitorID)
	assert.Empty(t, got.UserID)
	assert.True(t, got.LeadCaptured)
	assert.Nil(t, got.EndedAt)
	assert.Equal(t, "hazratganj", got.Context["location"])
	assert.Equal(t, float64(2), got.Context["bedrooms"])

	mock.ExpectQuery("SELECT (.+) FROM chat_sessions WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	got, err = s.GetSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateSessionContext(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec("UPDATE chat_sessions SET context").
		WithArgs("s-1", []byte(`{"phone":"9876543210"}`), true, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE chat_sessions SET context").
		WithArgs("gone", sqlmock.AnyArg(), false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, s.UpdateSessionContext(ctx, "s-1", map[string]interface{}{"phone": "9876543210"}, true))
	assert.ErrorIs(t, s.UpdateSessionContext(ctx, "gone", nil, false), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_HandoffAndEnd(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ended := fixedNow.Add(time.Hour)

	mock.ExpectExec("UPDATE chat_sessions SET handoff_to_agent = TRUE").
		WithArgs("s-1", sql.NullString{String: "agent-7", Valid: true}, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE chat_sessions SET ended_at").
		WithArgs("s-1", ended, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, s.MarkHandoff(ctx, "s-1", "agent-7"))
	require.NoError(t, s.EndSession(ctx, "s-1", ended))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Messages(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs("m-1", "s-1", models.RoleUser, "hi", []byte(`{"intent":"greeting"}`), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.AppendMessage(ctx, &models.ChatMessage{
		ID:        "m-1",
		SessionID: "s-1",
		Role:      models.RoleUser,
		Content:   "hi",
		Metadata:  map[string]interface{}{"intent": "greeting"},
	}))

	cols := []string{"id", "session_id", "role", "content", "metadata", "created_at"}
	mock.ExpectQuery("FROM chat_messages WHERE session_id = \\$1 ORDER BY created_at DESC LIMIT \\$2").
		WithArgs("s-1", 2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m-1", "s-1", "user", "hi", []byte(`{}`), fixedNow).
			AddRow("m-2", "s-1", "assistant", "hello", nil, fixedNow.Add(time.Second)))

	msgs, err := s.ListMessages(ctx, "s-1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.NotNil(t, msgs[1].Metadata)

	mock.ExpectQuery("FROM chat_messages WHERE session_id = \\$1 ORDER BY created_at ASC").
		WithArgs("s-2").
		WillReturnError(errors.New("connection reset"))

	_, err = s.ListMessages(ctx, "s-2", 0)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Leads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO leads (.+) ON CONFLICT \\(session_id, phone\\) DO NOTHING").
		WithArgs("l-1", sql.NullString{String: "s-1", Valid: true}, "chat", "9876543210", "new",
			[]byte(`{"budget":{"value":5000000}}`), sql.NullString{}, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CreateLead(ctx, &models.Lead{
		ID:        "l-1",
		SessionID: "s-1",
		Source:    models.LeadSourceChat,
		Phone:     "9876543210",
		Status:    models.LeadStatusNew,
		Context:   map[string]interface{}{"budget": map[string]interface{}{"value": 5000000}},
	}))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("s-1", "9876543210").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.LeadExists(ctx, "s-1", "9876543210")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectExec("INSERT INTO leads (.+) ON CONFLICT \\(session_id, phone\\) DO NOTHING").
		WithArgs("l-2", sql.NullString{String: "s-1", Valid: true}, "chat", "9876543210", "new",
			[]byte(`{}`), sql.NullString{}, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = s.CreateLead(ctx, &models.Lead{
		ID:        "l-2",
		SessionID: "s-1",
		Source:    models.LeadSourceChat,
		Phone:     "9876543210",
		Status:    models.LeadStatusNew,
		Context:   map[string]interface{}{},
	})
	assert.ErrorIs(t, err, ErrDuplicate, "conflicting insert writes nothing")

	cols := []string{"id", "session_id", "source", "phone", "status", "context", "crm_id", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM leads WHERE id").
		WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("l-1", "s-1", "chat", "9876543210", "new", []byte(`{}`), nil, fixedNow, fixedNow))

	lead, err := s.GetLead(ctx, "l-1")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "s-1", lead.SessionID)
	assert.Empty(t, lead.CRMID)

	mock.ExpectExec("UPDATE leads SET status").
		WithArgs("l-1", "synced", sql.NullString{String: "zcrm_9", Valid: true}, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE leads SET status").
		WithArgs("l-404", "notified", sql.NullString{}, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.UpdateLeadStatus(ctx, "l-1", models.LeadStatusSynced, "zcrm_9"))
	assert.ErrorIs(t, s.UpdateLeadStatus(ctx, "l-404", models.LeadStatusNotified, ""), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
