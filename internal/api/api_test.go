package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"property-chat/internal/chat"
	"property-chat/internal/common/config"
	"property-chat/internal/common/logger"
	"property-chat/internal/matcher"
	"property-chat/internal/models"
	"property-chat/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type brokenStore struct {
	store.Store
}

func (brokenStore) CreateSession(ctx context.Context, s *models.ChatSession) error {
	return stderrors.New("connection refused")
}

func newTestRouter(t *testing.T, st store.Store, durability string, checks ...ReadinessCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if st == nil {
		mem, err := store.NewStore(store.DriverMemory)
		require.NoError(t, err)
		st = mem
	}

	cfg := config.ChatConfig{
		AgentName:           "Priya",
		Greeting:            "Namaste! I'm Priya.",
		SuggestedQuestions:  []string{"Show me 2 BHK flats"},
		ConfidenceThreshold: 0.1,
		Durability:          durability,
		HistoryLimit:        50,
	}
	log := logger.NewTestLogger(t)
	svc := chat.NewService(cfg, chat.Dependencies{
		Matcher: matcher.New(nil, matcher.FixedSelector{Index: 0}, cfg.ConfidenceThreshold),
		Store:   st,
	}, log)

	return NewRouter(config.ServerConfig{Mode: gin.TestMode, AllowedOrigins: []string{"*"}}, svc, checks, log)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// ==========================
// HTTP Tests
// ==========================

func TestSendMessage_ReturnsReply(t *testing.T) {
	r := newTestRouter(t, nil, config.DurabilityBestEffort)

	w := doJSON(t, r, http.MethodPost, "/api/chat/message", map[string]interface{}{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp chat.SendMessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, matcher.IntentGreeting, resp.Intent)
	assert.Equal(t, models.RoleAssistant, resp.Message.Role)
	assert.NotEmpty(t, resp.Message.Content)
	assert.False(t, resp.LeadCaptured)
}

func TestSendMessage_BlankMessageIs400(t *testing.T) {
	r := newTestRouter(t, nil, config.DurabilityBestEffort)

	for _, body := range []interface{}{
		map[string]interface{}{"message": "   "},
		map[string]interface{}{},
		"{not json",
	} {
		w := doJSON(t, r, http.MethodPost, "/api/chat/message", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Message required.", decode(t, w)["error"])
	}
}

func TestSendMessage_StrictStoreFailureIs500(t *testing.T) {
	mem, err := store.NewStore(store.DriverMemory)
	require.NoError(t, err)
	r := newTestRouter(t, brokenStore{Store: mem}, config.DurabilityStrict)

	w := doJSON(t, r, http.MethodPost, "/api/chat/message", map[string]interface{}{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to process message", decode(t, w)["error"])
}

func TestSendMessage_PhoneCapturesLead(t *testing.T) {
	r := newTestRouter(t, nil, config.DurabilityBestEffort)

	w := doJSON(t, r, http.MethodPost, "/api/chat/message", map[string]interface{}{"message": "call me on 9876543210"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["leadCaptured"])
	assert.Equal(t, "9876543210", body["entities"].(map[string]interface{})["phone"])
}

func TestInit(t *testing.T) {
	r := newTestRouter(t, nil, config.DurabilityBestEffort)

	w := doJSON(t, r, http.MethodGet, "/api/chat/init", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chat.InitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Priya", resp.AgentName)
	assert.Equal(t, []string{"Show me 2 BHK flats"}, resp.SuggestedQuestions)
}

func TestSessionAction(t *testing.T) {
	r := newTestRouter(t, nil, config.DurabilityBestEffort)

	w := doJSON(t, r, http.MethodPost, "/api/chat/message", map[string]interface{}{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := decode(t, w)["sessionId"].(string)

	t.Run("handoff", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/chat/session", map[string]interface{}{
			"sessionId": sessionID, "action": "handoff", "agentId": "agent-7",
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, chat.HandoffReply, body["message"])
	})

	t.Run("end", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/chat/session", map[string]interface{}{
			"sessionId": sessionID, "action": "end",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["success"])
	})

	t.Run("unknown action", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/chat/session", map[string]interface{}{
			"sessionId": sessionID, "action": "archive",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["error"], "archive")
	})

	t.Run("missing session", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/chat/session", map[string]interface{}{
			"sessionId": "nope", "action": "end",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHistory(t *testing.T) {
	r := newTestRouter(t, nil, config.DurabilityBestEffort)

	w := doJSON(t, r, http.MethodPost, "/api/chat/message", map[string]interface{}{"message": "hello"})
	sessionID := decode(t, w)["sessionId"].(string)
	doJSON(t, r, http.MethodPost, "/api/chat/message", map[string]interface{}{"message": "2 bhk in hazratganj", "sessionId": sessionID})

	w = doJSON(t, r, http.MethodGet, "/api/chat/sessions/"+sessionID+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode(t, w)["messages"].([]interface{})
	require.Len(t, msgs, 4)
	assert.Equal(t, "hello", msgs[0].(map[string]interface{})["content"])

	w = doJSON(t, r, http.MethodGet, "/api/chat/sessions/"+sessionID+"/messages?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs = decode(t, w)["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "2 bhk in hazratganj", msgs[0].(map[string]interface{})["content"])

	w = doJSON(t, r, http.MethodGet, "/api/chat/sessions/"+sessionID+"/messages?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/chat/sessions/missing/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	ok := ReadinessCheck{Name: "store", Check: func(ctx context.Context) error { return nil }}
	down := ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error { return stderrors.New("dial tcp: refused") }}

	r := newTestRouter(t, nil, config.DurabilityBestEffort, ok)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["status"])

	r = newTestRouter(t, nil, config.DurabilityBestEffort, ok, down)
	w = doJSON(t, r, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, "dial tcp: refused", body["checks"].(map[string]interface{})["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil, config.DurabilityBestEffort)
	w := doJSON(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil, config.DurabilityBestEffort)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/message", nil)
	req.Header.Set("Origin", "https://homes.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// ==========================
// Websocket Tests
// ==========================

func dialChat(t *testing.T, r http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) OutboundFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out OutboundFrame
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestChatSocket_RepliesAndKeepsSession(t *testing.T) {
	conn := dialChat(t, newTestRouter(t, nil, config.DurabilityBestEffort))

	require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameMessage, Message: "hello"}))
	first := readFrame(t, conn)
	require.Equal(t, FrameReply, first.Type)
	require.NotNil(t, first.Reply)
	assert.Equal(t, matcher.IntentGreeting, first.Reply.Intent)

	require.NoError(t, conn.WriteJSON(InboundFrame{Message: "3 bhk villa in gomti nagar"}))
	second := readFrame(t, conn)
	require.Equal(t, FrameReply, second.Type)
	assert.Equal(t, first.Reply.SessionID, second.Reply.SessionID)
	assert.Equal(t, "gomti nagar", strings.ToLower(second.Reply.Context["location"].(string)))
}

func TestChatSocket_ErrorFramesCarryFallback(t *testing.T) {
	conn := dialChat(t, newTestRouter(t, nil, config.DurabilityBestEffort))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	frame := readFrame(t, conn)
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, "Invalid message format", frame.Error)
	assert.NotEmpty(t, frame.Content)
	assert.NotEmpty(t, frame.SuggestedActions)

	require.NoError(t, conn.WriteJSON(InboundFrame{Message: "  "}))
	frame = readFrame(t, conn)
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, "Message required.", frame.Error)
}
