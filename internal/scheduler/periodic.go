package scheduler

import (
	"context"
	"fmt"

	"jurisprudencia_backend/platform/config"
	"jurisprudencia_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues a bulk sync run on a cron interval so the corpus keeps
// catching up without operator action.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
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

	cron := cfg.GetSyncCron()
	if cron == "" {
		cron = "@every 1h"
	}

	sched := asynq.NewScheduler(opt, nil)

	// Periodic runs use the default budget; catching up a large backlog is
	// spread across intervals instead of one long pass.
	task, err := NewBulkSyncRunTask(BulkSyncRunPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := sched.Register(cron, task, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register periodic bulk sync: %w", err)
	}

	log.Info("periodic bulk sync registered", "cron", cron, "queue", queue)

	return &Periodic{scheduler: sched, log: log}, nil
}

// Run blocks until the scheduler stops. Shutdown is triggered by context
// cancellation.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		p.scheduler.Shutdown()
	}()

	if err := p.scheduler.Run(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
	}
}
