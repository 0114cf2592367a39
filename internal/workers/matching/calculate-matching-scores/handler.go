package calculatematchingscores

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/service"
)

const TaskType = "calculate-matching-scores"

// reportTimeout bounds the complete/fail/throw command sent after the job
// context has ended.
const reportTimeout = 5 * time.Second

// Calculator runs one matching invocation. *service.Service implements it.
type Calculator interface {
	Calculate(ctx context.Context, req service.Request) (*service.Outcome, error)
}

type Handler struct {
	config       *Config
	service      Calculator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, svc Calculator, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:       cfg,
		service:      svc,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing matching score calculation", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return err
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	return nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	if err := inputSchema.Validate(variables).Err(); err != nil {
		return nil, err
	}

	input := &Input{ProjectID: variables["projectId"].(string)}
	if profileID, ok := variables["profileId"].(string); ok {
		input.ProfileID = profileID
	}
	return input, nil
}

// Execute runs the calculation for already-validated input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	outcome, err := h.service.Calculate(ctx, service.Request{
		ProjectID: input.ProjectID,
		ProfileID: input.ProfileID,
		Source:    "zeebe",
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		Success:        true,
		ProjectID:      outcome.ProjectID,
		Scored:         outcome.Scored,
		Persisted:      outcome.Persisted,
		FailedProfiles: outcome.Failed,
		MatchingScores: outcome.Matches,
	}, nil
}

// reportContext detaches from the job deadline so the outcome still reaches the
// broker when the calculation ran out of time.
func reportContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	ctx, cancel := reportContext(ctx)
	defer cancel()

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	h.logger.Info("Matching scores calculated", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"projectId": output.ProjectID,
		"persisted": output.Persisted,
		"returned":  len(output.MatchingScores),
	})
	return nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()

	ctx, cancel := reportContext(ctx)
	defer cancel()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) TaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) MaxJobsActive() int {
	return h.config.MaxJobsActive
}

func (h *Handler) Timeout() time.Duration {
	return h.config.Timeout
}
