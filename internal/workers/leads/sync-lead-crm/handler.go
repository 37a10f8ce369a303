package syncleadcrm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"property-chat/internal/common/config"
	"property-chat/internal/common/errors"
	"property-chat/internal/common/logger"
	"property-chat/internal/common/observability"
	"property-chat/internal/common/zoho"
	"property-chat/internal/matcher"
	"property-chat/internal/models"
	"property-chat/internal/workers/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const TaskType = "sync-lead-crm"

// CRM is satisfied by *zoho.CRMClient.
type CRM interface {
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
	SearchLeadsByPhone(ctx context.Context, phone string) ([]zoho.Lead, error)
}

// LeadUpdater is satisfied by store.Store.
type LeadUpdater interface {
	UpdateLeadStatus(ctx context.Context, id, status, crmID string) error
}

type Handler struct {
	config       *Config
	crm          CRM
	leads        LeadUpdater
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	CRM           CRM
	Leads         LeadUpdater
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.CRM == nil || opts.Leads == nil {
		return nil, fmt.Errorf("%s requires a CRM client and a lead store", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json", "stdout")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		crm:          opts.CRM,
		leads:        opts.Leads,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	tracker := jobs.Begin(h.obs, TaskType)

	var input Input
	if err := jobs.Decode(job, inputSchema, &input); err != nil {
		tracker.Done(ctx, err)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return nil
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		tracker.Done(ctx, err)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return nil
	}

	if err := jobs.Complete(ctx, client, job, output); err != nil {
		tracker.Done(ctx, err)
		return err
	}
	tracker.Done(ctx, nil)
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// execute looks the phone up before creating, so a retried job reuses the
// CRM record made by the failed attempt.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.LeadID == "" || input.Phone == "" {
		return nil, errors.NewInvalidJobInputError("leadId and phone are required")
	}
	log := h.logger.WithFields(map[string]interface{}{"leadId": input.LeadID})

	existing, err := h.crm.SearchLeadsByPhone(ctx, input.Phone)
	if err != nil {
		return nil, errors.NewCRMSyncFailedError(err)
	}

	out := &Output{}
	if len(existing) > 0 && existing[0].ID != "" {
		out.CRMLeadID = existing[0].ID
		out.Existing = true
	} else {
		id, err := h.crm.CreateLead(ctx, h.toCRMLead(input))
		if err != nil {
			return nil, errors.NewCRMSyncFailedError(err)
		}
		out.CRMLeadID = id
	}

	if err := h.leads.UpdateLeadStatus(ctx, input.LeadID, models.LeadStatusSynced, out.CRMLeadID); err != nil {
		return nil, errors.NewPersistenceError("update_lead_status", err)
	}

	out.SyncedAt = h.now().Format(time.RFC3339)
	log.Info("Lead synced to CRM", map[string]interface{}{
		"crmLeadId": out.CRMLeadID,
		"existing":  out.Existing,
	})
	return out, nil
}

func (h *Handler) toCRMLead(input *Input) *zoho.Lead {
	return &zoho.Lead{
		LastName:    "Chat Visitor " + lastDigits(input.Phone, 4),
		Mobile:      input.Phone,
		City:        h.config.DefaultCity,
		Source:      h.config.LeadSource,
		Description: describe(input),
	}
}

// describe summarises the visitor's stated requirements for the sales team.
func describe(input *Input) string {
	c := input.Context
	parts := []string{"Lead " + input.LeadID + " from website chat"}

	if c.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("Looking for %d BHK", *c.Bedrooms))
	}
	if c.PropertyType != "" {
		parts = append(parts, "Type: "+c.PropertyType)
	}
	if c.ListingType != "" {
		parts = append(parts, "For: "+c.ListingType)
	}
	if c.Location != "" {
		parts = append(parts, "Location: "+cases.Title(language.English).String(c.Location))
	}
	if c.Budget != nil {
		parts = append(parts, "Budget: "+matcher.FormatBudget(*c.Budget))
	}
	return strings.Join(parts, ". ") + "."
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	if workerCfg, exists := appConfig.Workers[TaskType]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
		}
	}
	return cfg
}
