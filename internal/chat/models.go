package chat

import (
	"time"

	"property-chat/internal/models"
)

// Channels a turn can arrive on, used as a metrics label.
const (
	ChannelHTTP      = "http"
	ChannelWebsocket = "websocket"
	ChannelZeebe     = "zeebe"
)

// Session actions.
const (
	ActionHandoff = "handoff"
	ActionEnd     = "end"
)

// HandoffReply is the canned answer to a handoff request.
const HandoffReply = "Connecting you with one of our property experts. They'll be with you shortly."

type SendMessageRequest struct {
	Message   string                 `json:"message"`
	SessionID string                 `json:"sessionId,omitempty"`
	VisitorID string                 `json:"visitorId,omitempty"`
	UserID    string                 `json:"userId,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Channel   string                 `json:"-"`
}

type ReplyMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type SendMessageResponse struct {
	SessionID        string                 `json:"sessionId"`
	Message          ReplyMessage           `json:"message"`
	SuggestedActions []models.Action        `json:"suggestedActions"`
	Context          map[string]interface{} `json:"context"`
	Entities         map[string]interface{} `json:"entities"`
	Intent           string                 `json:"intent"`
	Confidence       float64                `json:"confidence"`
	LeadCaptured     bool                   `json:"leadCaptured"`
}

type InitResponse struct {
	AgentName          string   `json:"agentName"`
	Greeting           string   `json:"greeting"`
	SuggestedQuestions []string `json:"suggestedQuestions"`
}

type SessionActionRequest struct {
	SessionID string `json:"sessionId"`
	Action    string `json:"action"`
	AgentID   string `json:"agentId,omitempty"`
}

type SessionActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
