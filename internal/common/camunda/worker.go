// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"property-chat/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler must return an error (required by Zeebe client)
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// WorkerOptions tunes job activation for one task type.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

func NewWorker(
	client zbc.Client,
	taskType string,
	opts WorkerOptions,
	handler JobHandler,
	log logger.Logger,
) *CamundaWorker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			if err := handler.Handle(client, job); err != nil {
				log.Error("Handler returned error", map[string]interface{}{
					"error":  err.Error(),
					"jobKey": job.Key,
				})
			}
		}).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}

	return &CamundaWorker{
		worker:   builder.Open(),
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", nil)
}

// Stop closes the job worker. The shared Zeebe client is closed by its owner.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
}
