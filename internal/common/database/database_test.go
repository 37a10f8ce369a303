package database

import (
	"context"
	"testing"

	"property-chat/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClient_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS chat_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	client := &PostgresClient{DB: db}
	require.NoError(t, client.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_PingAndClose(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()

	client := &PostgresClient{DB: db}
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewElasticsearch_UsesURLFallback(t *testing.T) {
	client, err := NewElasticsearch(config.ElasticsearchConfig{URL: "http://localhost:9200"})
	require.NoError(t, err)
	assert.NotNil(t, client.Client)
}

func TestNewSupabase(t *testing.T) {
	client, err := NewSupabase(config.SupabaseConfig{URL: "https://project.supabase.co", APIKey: "anon-key"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}
