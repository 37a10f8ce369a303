package syncleadcrm

import "property-chat/internal/models"

type Input struct {
	LeadID  string          `json:"leadId"`
	Phone   string          `json:"phone"`
	Context models.Entities `json:"context"`
}

type Output struct {
	CRMLeadID string `json:"crmLeadId"`
	Existing  bool   `json:"crmLeadExisting"`
	SyncedAt  string `json:"syncedAt"`
}
