package processchatmessage

import "property-chat/internal/models"

type Input struct {
	Message   string                 `json:"message"`
	SessionID string                 `json:"sessionId,omitempty"`
	VisitorID string                 `json:"visitorId,omitempty"`
	UserID    string                 `json:"userId,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

type Output struct {
	SessionID        string                 `json:"sessionId"`
	Reply            string                 `json:"reply"`
	Intent           string                 `json:"intent"`
	Confidence       float64                `json:"confidence"`
	Entities         map[string]interface{} `json:"entities"`
	Context          map[string]interface{} `json:"context"`
	SuggestedActions []models.Action        `json:"suggestedActions"`
	LeadCaptured     bool                   `json:"leadCaptured"`
}
