package notifysales

import (
	"context"
	"fmt"
	"time"

	"property-chat/internal/common/config"
	"property-chat/internal/common/errors"
	"property-chat/internal/common/logger"
	"property-chat/internal/common/observability"
	"property-chat/internal/models"
	"property-chat/internal/workers/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "notify-sales"

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendText(ctx context.Context, from, to, subject, body string) (string, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) (string, error)
}

// LeadUpdater is satisfied by store.Store.
type LeadUpdater interface {
	UpdateLeadStatus(ctx context.Context, id, status, crmID string) error
}

type Handler struct {
	config       *Config
	email        EmailSender
	sms          SMSSender
	leads        LeadUpdater
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Email         EmailSender
	SMS           SMSSender
	Leads         LeadUpdater
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if cfg.EmailEnabled && opts.Email == nil {
		return nil, fmt.Errorf("%s: email enabled without an email sender", TaskType)
	}
	if cfg.SMSEnabled && opts.SMS == nil {
		return nil, fmt.Errorf("%s: sms enabled without an sms sender", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json", "stdout")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		email:        opts.Email,
		sms:          opts.SMS,
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

// execute notifies on every enabled channel. The job fails only when every
// attempted channel failed.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.LeadID == "" {
		return nil, errors.NewInvalidJobInputError("leadId is required")
	}

	phone := NormalizePhone(input.Phone)
	log := h.logger.WithFields(map[string]interface{}{"leadId": input.LeadID})

	out := &Output{EmailStatus: StatusDisabled, SMSStatus: StatusDisabled}
	var lastErr error
	lastChannel := ""

	if h.config.EmailEnabled {
		if err := h.sendEmail(ctx, input, phone); err != nil {
			log.Error("Sales email failed", map[string]interface{}{"error": err.Error()})
			out.EmailStatus = StatusFailed
			lastErr, lastChannel = err, "email"
		} else {
			out.EmailStatus = StatusSent
		}
	}

	if h.config.SMSEnabled && phone != "" {
		if _, err := h.sms.SendSMS(ctx, phone, smsText); err != nil {
			log.Error("Visitor SMS failed", map[string]interface{}{"error": err.Error()})
			out.SMSStatus = StatusFailed
			lastErr, lastChannel = err, "sms"
		} else {
			out.SMSStatus = StatusSent
		}
	}

	sent := out.EmailStatus == StatusSent || out.SMSStatus == StatusSent
	if !sent && lastErr != nil {
		return nil, errors.NewNotificationSendFailedError(lastChannel, lastErr)
	}

	out.NotifiedAt = h.now().Format(time.RFC3339)

	// The notification went out; a status write failure must not resend it.
	if sent && h.leads != nil {
		if err := h.leads.UpdateLeadStatus(ctx, input.LeadID, models.LeadStatusNotified, ""); err != nil {
			log.Warn("Failed to mark lead notified", map[string]interface{}{"error": err.Error()})
		}
	}

	log.Info("Lead notification processed", map[string]interface{}{
		"emailStatus": out.EmailStatus,
		"smsStatus":   out.SMSStatus,
	})
	return out, nil
}

func (h *Handler) sendEmail(ctx context.Context, input *Input, phone string) error {
	subject, body, err := renderEmail(input, phone)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	_, err = h.email.SendText(ctx, h.config.FromEmail, h.config.SalesEmail, subject, body)
	return err
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

	aws := appConfig.Integrations.AWS
	cfg.EmailEnabled = aws.SES.Enabled
	cfg.FromEmail = aws.SES.FromEmail
	cfg.SalesEmail = aws.SES.SalesEmail
	cfg.SMSEnabled = aws.SNS.Enabled
	return cfg
}
