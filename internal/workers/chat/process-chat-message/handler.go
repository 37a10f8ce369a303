// Package processchatmessage runs a chat turn as a Zeebe task so that
// channels other than the website widget can drive conversations.
package processchatmessage

import (
	"context"
	"fmt"
	"time"

	"property-chat/internal/chat"
	"property-chat/internal/common/config"
	"property-chat/internal/common/errors"
	"property-chat/internal/common/logger"
	"property-chat/internal/common/observability"
	"property-chat/internal/workers/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "process-chat-message"

type Handler struct {
	config       *Config
	service      *chat.Service
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Service       *chat.Service
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("%s requires the chat service", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json", "stdout")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		service:      opts.Service,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
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

	h.logger.Debug("Chat turn completed via job", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"sessionId": output.SessionID,
		"intent":    output.Intent,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewMessageRequiredError()
	}

	resp, err := h.service.SendMessage(ctx, chat.SendMessageRequest{
		Message:   input.Message,
		SessionID: input.SessionID,
		VisitorID: input.VisitorID,
		UserID:    input.UserID,
		Context:   input.Context,
		Channel:   chat.ChannelZeebe,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		SessionID:        resp.SessionID,
		Reply:            resp.Message.Content,
		Intent:           resp.Intent,
		Confidence:       resp.Confidence,
		Entities:         resp.Entities,
		Context:          resp.Context,
		SuggestedActions: resp.SuggestedActions,
		LeadCaptured:     resp.LeadCaptured,
	}, nil
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
