// Package throttle governs outbound federation calls: a per-caller minimum
// interval between remote lookups plus a global cap on concurrent calls.
// This is part of the platform layer and contains no business logic.
package throttle

import (
	"sync"
	"time"

	"jurisprudencia_backend/platform/apperr"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	msgCallerThrottled = "consultas à fonte externa são limitadas; aguarde alguns segundos e tente novamente"
	msgTooManyInFlight = "muitas consultas federadas em andamento; tente novamente em instantes"
)

// Governor combines per-caller throttling with a global concurrency cap.
// State lives in process memory; callers are identified by an opaque ID so
// the map can later be replaced by a shared store without touching call
// sites. Excess demand is rejected, never queued.
type Governor struct {
	limiters sync.Map // caller ID -> *rate.Limiter
	interval rate.Limit
	sem      *semaphore.Weighted
}

// New creates a Governor enforcing minInterval between requests per caller
// and at most maxConcurrent in-flight federation calls overall.
func New(minInterval time.Duration, maxConcurrent int) *Governor {
	if minInterval <= 0 {
		minInterval = 3 * time.Second
	}
	if maxConcurrent < 1 {
		maxConcurrent = 5
	}
	return &Governor{
		interval: rate.Every(minInterval),
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

func (g *Governor) limiterFor(callerID string) *rate.Limiter {
	limiter, ok := g.limiters.Load(callerID)
	if !ok {
		newLimiter := rate.NewLimiter(g.interval, 1)
		limiter, _ = g.limiters.LoadOrStore(callerID, newLimiter)
	}
	return limiter.(*rate.Limiter)
}

// Acquire reserves a federation slot for the caller. On success it returns
// a release function that must be called when the remote call finishes.
// Denials are typed apperr.RateLimited errors carrying a retry-later message.
func (g *Governor) Acquire(callerID string) (func(), error) {
	if !g.limiterFor(callerID).Allow() {
		return nil, apperr.RateLimited(msgCallerThrottled)
	}

	if !g.sem.TryAcquire(1) {
		return nil, apperr.RateLimited(msgTooManyInFlight)
	}

	return func() { g.sem.Release(1) }, nil
}
