package notifysales

import "property-chat/internal/models"

// Channel delivery statuses.
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Input struct {
	LeadID   string          `json:"leadId"`
	Phone    string          `json:"phone"`
	Context  models.Entities `json:"context"`
	Listings []Listing       `json:"listings,omitempty"`
}

// Listing is the subset of a match-listings result quoted in the email.
type Listing struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Price    int64  `json:"price"`
}

type Output struct {
	EmailStatus string `json:"emailStatus"`
	SMSStatus   string `json:"smsStatus"`
	NotifiedAt  string `json:"notifiedAt"`
}
