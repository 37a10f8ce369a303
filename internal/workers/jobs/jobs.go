// Package jobs holds the plumbing every Zeebe worker shares: decoding and
// validating variables, completing jobs and recording job metrics.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"property-chat/internal/common/errors"
	"property-chat/internal/common/metrics"
	"property-chat/internal/common/observability"
	"property-chat/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Decode validates the job variables against schema and unmarshals them into v.
func Decode(job entities.Job, schema *validation.Schema, v interface{}) error {
	vars := job.GetVariables()
	if vars == "" {
		vars = "{}"
	}

	if schema != nil {
		if res := schema.ValidateJSON(vars); !res.Valid {
			return errors.NewInvalidJobInputError(res.Summary())
		}
	}

	if err := json.Unmarshal([]byte(vars), v); err != nil {
		return errors.NewInvalidJobInputError(fmt.Sprintf("decode variables: %v", err))
	}
	return nil
}

// Complete sends the output as the job's result variables.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("build complete command: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("complete job %d: %w", job.GetKey(), err)
	}
	return nil
}

// Tracker records one job's lifecycle in Prometheus and OpenTelemetry.
type Tracker struct {
	taskType string
	obs      *observability.Observability
	start    time.Time
}

// Begin marks a job active. Call Done exactly once.
func Begin(obs *observability.Observability, taskType string) *Tracker {
	if obs == nil {
		obs = &observability.Observability{}
	}
	metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
	return &Tracker{taskType: taskType, obs: obs, start: time.Now()}
}

// Done records the outcome. A nil err counts as completed.
func (t *Tracker) Done(ctx context.Context, err error) {
	metrics.WorkerJobsActive.WithLabelValues(t.taskType).Dec()
	elapsed := time.Since(t.start)

	status := "completed"
	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(t.taskType, Code(err)).Inc()
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(t.taskType).Inc()
	}
	metrics.WorkerJobDuration.WithLabelValues(t.taskType).Observe(elapsed.Seconds())

	t.obs.RecordJobProcessed(ctx, t.taskType, status)
	t.obs.RecordJobDuration(ctx, t.taskType, elapsed, status)
}

// Code extracts the error code used as a metrics label.
func Code(err error) string {
	if stdErr, ok := errors.AsStandard(err); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}
