package matchlistings

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"property-chat/internal/common/config"
	"property-chat/internal/common/errors"
	"property-chat/internal/common/logger"
	"property-chat/internal/common/observability"
	"property-chat/internal/workers/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const TaskType = "match-listings"

type Handler struct {
	config       *Config
	es           *elasticsearch.Client
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Elasticsearch *elasticsearch.Client
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Elasticsearch == nil {
		return nil, fmt.Errorf("%s requires an elasticsearch client", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json", "stdout")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		es:           opts.Elasticsearch,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	tracker := jobs.Begin(h.obs, TaskType)

	h.logger.Info("Matching listings for lead", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

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

	h.logger.Info("Listings matched", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"leadId":    input.LeadID,
		"totalHits": output.TotalHits,
		"returned":  len(output.Listings),
	})
	return nil
}

// Execute runs the search without a Zeebe job, for tests and tools.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.LeadID == "" {
		return nil, errors.NewInvalidJobInputError("leadId is required")
	}

	body, err := json.Marshal(BuildQuery(input.Context, h.config.BudgetTolerance, h.config.Size))
	if err != nil {
		return nil, errors.NewListingSearchFailedError(err)
	}

	res, err := h.es.Search(
		h.es.Search.WithContext(ctx),
		h.es.Search.WithIndex(h.config.Index),
		h.es.Search.WithBody(bytes.NewReader(body)),
		h.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewSearchTimeoutError(h.config.Index)
		}
		return nil, errors.NewListingSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return nil, errors.NewIndexNotFoundError(h.config.Index)
		}
		return nil, errors.NewListingSearchFailedError(fmt.Errorf("search returned %s", res.Status()))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, errors.NewListingSearchFailedError(fmt.Errorf("decode search response: %w", err))
	}

	out := &Output{
		Listings:  make([]Listing, 0, len(sr.Hits.Hits)),
		TotalHits: sr.Hits.Total.Value,
	}
	for _, hit := range sr.Hits.Hits {
		out.Listings = append(out.Listings, Listing{
			ID:       hit.ID,
			Title:    hit.Source.Title,
			Location: hit.Source.Location,
			Price:    hit.Source.Price,
			Bedrooms: hit.Source.Bedrooms,
			Score:    hit.Score,
		})
	}
	return out, nil
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
	if idx := appConfig.Database.Elasticsearch.ListingsIndex; idx != "" {
		cfg.Index = idx
	}
	return cfg
}
