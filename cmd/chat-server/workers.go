package main

import (
	"context"
	"time"

	"property-chat/internal/chat"
	"property-chat/internal/common/aws"
	"property-chat/internal/common/camunda"
	"property-chat/internal/common/config"
	"property-chat/internal/common/database"
	"property-chat/internal/common/logger"
	"property-chat/internal/common/observability"
	"property-chat/internal/common/zoho"
	"property-chat/internal/store"

	pcm "property-chat/internal/workers/chat/process-chat-message"
	ml "property-chat/internal/workers/leads/match-listings"
	ns "property-chat/internal/workers/leads/notify-sales"
	slc "property-chat/internal/workers/leads/sync-lead-crm"

	"go.uber.org/zap"
)

type workerDeps struct {
	cfg     *config.Config
	zeebe   *camunda.Client
	service *chat.Service
	store   store.Store
	obs     *observability.Observability
	log     logger.Logger
	zapLog  *zap.Logger
}

// registerWorkers opens a job worker for every enabled task type. A worker
// whose dependencies cannot be built is skipped and logged; the chat API
// keeps serving.
func registerWorkers(ctx context.Context, d workerDeps) []*camunda.CamundaWorker {
	var started []*camunda.CamundaWorker

	start := func(taskType string, maxJobs int, timeout time.Duration, h camunda.JobHandler) {
		w := camunda.NewWorker(d.zeebe.GetClient(), taskType, camunda.WorkerOptions{
			MaxJobsActive: maxJobs,
			Timeout:       timeout,
		}, h, d.log)
		w.Start()
		started = append(started, w)
		d.zapLog.Info("worker started",
			zap.String("taskType", taskType),
			zap.Int("maxJobsActive", maxJobs),
			zap.Duration("timeout", timeout),
		)
	}
	skip := func(taskType string, err error) {
		d.zapLog.Error("worker not started", zap.String("taskType", taskType), zap.Error(err))
	}

	// --- process-chat-message ---
	if config.IsWorkerEnabled(d.cfg, pcm.TaskType) {
		h, err := pcm.NewHandler(pcm.HandlerOptions{
			AppConfig:     d.cfg,
			Service:       d.service,
			Observability: d.obs,
			Logger:        d.log,
		})
		if err != nil {
			skip(pcm.TaskType, err)
		} else {
			c := h.GetConfig()
			start(pcm.TaskType, c.MaxJobsActive, c.Timeout, h)
		}
	}

	// --- match-listings ---
	if config.IsWorkerEnabled(d.cfg, ml.TaskType) {
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(d.cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, d.zapLog, "Elasticsearch connection")

		if err != nil {
			skip(ml.TaskType, err)
		} else if h, err := ml.NewHandler(ml.HandlerOptions{
			AppConfig:     d.cfg,
			Elasticsearch: es.Client,
			Observability: d.obs,
			Logger:        d.log,
		}); err != nil {
			skip(ml.TaskType, err)
		} else {
			c := h.GetConfig()
			start(ml.TaskType, c.MaxJobsActive, c.Timeout, h)
		}
	}

	// --- notify-sales ---
	if config.IsWorkerEnabled(d.cfg, ns.TaskType) {
		opts := ns.HandlerOptions{
			AppConfig:     d.cfg,
			Leads:         d.store,
			Observability: d.obs,
			Logger:        d.log,
		}
		awsCfg := d.cfg.Integrations.AWS

		var err error
		if awsCfg.SES.Enabled {
			var sesClient *aws.SESClient
			if sesClient, err = aws.NewSESClient(ctx, awsCfg.Region); err == nil {
				opts.Email = sesClient
			}
		}
		if err == nil && awsCfg.SNS.Enabled {
			var snsClient *aws.SNSClient
			if snsClient, err = aws.NewSNSClient(ctx, awsCfg.Region, awsCfg.SNS.DefaultSMSSenderID); err == nil {
				opts.SMS = snsClient
			}
		}

		if err != nil {
			skip(ns.TaskType, err)
		} else if h, err := ns.NewHandler(opts); err != nil {
			skip(ns.TaskType, err)
		} else {
			c := h.GetConfig()
			start(ns.TaskType, c.MaxJobsActive, c.Timeout, h)
		}
	}

	// --- sync-lead-crm ---
	if config.IsWorkerEnabled(d.cfg, slc.TaskType) {
		zc := d.cfg.Integrations.Zoho
		crm := zoho.NewCRMClient(zc.BaseURL, zc.AuthToken, config.GetDuration(zc.Timeout))

		h, err := slc.NewHandler(slc.HandlerOptions{
			AppConfig:     d.cfg,
			CRM:           crm,
			Leads:         d.store,
			Observability: d.obs,
			Logger:        d.log,
		})
		if err != nil {
			skip(slc.TaskType, err)
		} else {
			c := h.GetConfig()
			start(slc.TaskType, c.MaxJobsActive, c.Timeout, h)
		}
	}

	return started
}
