package scheduler

import (
	"context"
	"fmt"

	"jurisprudencia_backend/internal/bulksync/service"
	"jurisprudencia_backend/internal/bulksync/transport"
	"jurisprudencia_backend/platform/config"
	"jurisprudencia_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// BulkSyncRunner is the slice of the bulk sync service the worker drives.
type BulkSyncRunner interface {
	Run(ctx context.Context, params service.RunParams) (transport.SyncRunResponse, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	syncer BulkSyncRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, syncer BulkSyncRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		syncer: syncer,
		log:    log,
	}

	mux.HandleFunc(TaskBulkSyncRun, w.handleBulkSyncRun)

	return w, nil
}

func (w *Worker) handleBulkSyncRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBulkSyncRunPayload(task)
	if err != nil {
		return err
	}

	result, err := w.syncer.Run(ctx, service.RunParams{
		Unit:     payload.Unit,
		MaxFiles: payload.MaxFiles,
		Force:    payload.Force,
	})
	if err != nil {
		return err
	}

	w.log.Info("bulk sync run finished",
		"processed", result.Summary.Processed,
		"success", result.Summary.Success,
		"errors", result.Summary.Error,
		"skipped", result.Summary.Skipped,
		"recordsImported", result.Summary.RecordsImported,
		"remainingPending", result.Summary.RemainingPending,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
