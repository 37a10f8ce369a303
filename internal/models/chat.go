package models

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation stages kept under ContextKeyStage.
const (
	StageGreeting       = "greeting"
	StageDiscovery      = "discovery"
	StageScheduling     = "scheduling"
	StageClosing        = "closing"
	StageRecommendation = "recommendation"
)

// Well-known session context keys.
const (
	ContextKeyStage      = "conversationStage"
	ContextKeyLastIntent = "lastIntent"
)

// ChatSession is one visitor conversation.
type ChatSession struct {
	ID           string                 `json:"id" db:"id"`
	VisitorID    string                 `json:"visitorId,omitempty" db:"visitor_id"`
	UserID       string                 `json:"userId,omitempty" db:"user_id"`
	Context      map[string]interface{} `json:"context" db:"context"`
	LeadCaptured bool                   `json:"leadCaptured" db:"lead_captured"`
	HandedOff    bool                   `json:"handedOff" db:"handoff_to_agent"`
	AgentID      string                 `json:"agentId,omitempty" db:"agent_id"`
	StartedAt    time.Time              `json:"startedAt" db:"started_at"`
	EndedAt      *time.Time             `json:"endedAt,omitempty" db:"ended_at"`
	UpdatedAt    time.Time              `json:"updatedAt" db:"updated_at"`
}

// ChatMessage is append-only.
type ChatMessage struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"sessionId" db:"session_id"`
	Role      string                 `json:"role" db:"role"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time              `json:"createdAt" db:"created_at"`
}

// Lead statuses.
const (
	LeadStatusNew      = "new"
	LeadStatusNotified = "notified"
	LeadStatusSynced   = "synced"
)

// LeadSourceChat marks leads captured by the chat widget.
const LeadSourceChat = "chat"

// Lead is a sales contact captured from a conversation.
type Lead struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"sessionId" db:"session_id"`
	Source    string                 `json:"source" db:"source"`
	Phone     string                 `json:"phone" db:"phone"`
	Status    string                 `json:"status" db:"status"`
	Context   map[string]interface{} `json:"context" db:"context"`
	CRMID     string                 `json:"crmId,omitempty" db:"crm_id"`
	CreatedAt time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time              `json:"updatedAt" db:"updated_at"`
}
