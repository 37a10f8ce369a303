package camunda

import (
	"context"

	"property-chat/internal/common/logger"
	"property-chat/internal/models"
)

// InstanceCreator starts BPMN process instances. *Client implements it.
type InstanceCreator interface {
	CreateInstance(ctx context.Context, bpmnProcessID string, variables map[string]interface{}) (int64, error)
}

// LeadFollowup starts the lead follow-up process for newly captured leads.
type LeadFollowup struct {
	creator   InstanceCreator
	processID string
	logger    logger.Logger
}

func NewLeadFollowup(creator InstanceCreator, processID string, log logger.Logger) *LeadFollowup {
	return &LeadFollowup{
		creator:   creator,
		processID: processID,
		logger:    log.WithFields(map[string]interface{}{"processId": processID}),
	}
}

// StartLeadFollowup creates one process instance carrying the lead variables
// the follow-up workers read.
func (f *LeadFollowup) StartLeadFollowup(ctx context.Context, lead *models.Lead) error {
	vars := map[string]interface{}{
		"leadId":    lead.ID,
		"sessionId": lead.SessionID,
		"phone":     lead.Phone,
		"source":    lead.Source,
		"context":   lead.Context,
	}

	key, err := f.creator.CreateInstance(ctx, f.processID, vars)
	if err != nil {
		return err
	}

	f.logger.Info("Lead follow-up started", map[string]interface{}{
		"leadId":             lead.ID,
		"processInstanceKey": key,
	})
	return nil
}
