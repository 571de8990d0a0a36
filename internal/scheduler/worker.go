package scheduler

import (
	"context"
	"fmt"

	woservice "maintenance_backend/internal/workorders/service"
	"maintenance_backend/platform/config"
	"maintenance_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ActivationRunner promotes scheduled work orders whose lead time was reached.
type ActivationRunner interface {
	ActivateDue(ctx context.Context) (woservice.SweepResult, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner ActivationRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner ActivationRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	return newWorker(server, runner, log), nil
}

func newWorker(server *asynq.Server, runner ActivationRunner, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Discard()
	}
	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		runner: runner,
		log:    log,
	}
	w.mux.HandleFunc(TaskActivationSweep, w.handleActivationSweep)
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}

func (w *Worker) handleActivationSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseActivationSweepPayload(task)
	if err != nil {
		return fmt.Errorf("invalid activation sweep payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := w.runner.ActivateDue(ctx)
	if err != nil {
		return err
	}
	w.log.Debug("queued activation sweep finished",
		"source", payload.Source,
		"requestedAt", payload.RequestedAt,
		"promoted", len(result.Promoted),
	)
	return nil
}
