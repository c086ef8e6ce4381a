// Package scheduler runs the periodic purge of expired soft-deleted entries.
package scheduler

import (
	"context"
	"sync"
	"time"

	"todolist/backend/internal/logger"
	"todolist/backend/internal/metrics"
	"todolist/backend/internal/service"
)

type Scheduler struct {
	purgeService service.PurgeService
	interval     time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc // cancels the sweep in flight
	mu           sync.Mutex         // protects cancelFunc
}

func New(purgeService service.PurgeService, interval time.Duration) *Scheduler {
	return &Scheduler{
		purgeService: purgeService,
		interval:     interval,
		stopCh:       make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "module", "scheduler", "action", "purge", "resource", "entry", "result", "ok", "interval_ms", s.interval.Milliseconds())
}

// Stop cancels a sweep in flight and waits for the loop to exit. It is safe
// to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.stopCh)
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.mu.Unlock()

		s.wg.Wait()
		logger.Info("scheduler stopped", "module", "scheduler", "action", "purge", "resource", "entry", "result", "ok")
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.purge()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purge()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) purge() {
	// a sweep never outlives its interval
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	s.mu.Lock()
	select {
	case <-s.stopCh:
		s.mu.Unlock()
		cancel()
		return
	default:
	}
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	purged, err := s.purgeService.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			metrics.RecordPurgeRun("cancelled")
			logger.Warn("scheduled purge cancelled", "module", "scheduler", "action", "purge", "resource", "entry", "result", "cancelled")
			return
		}
		metrics.RecordPurgeRun("failed")
		logger.Error("scheduled purge failed", "module", "scheduler", "action", "purge", "resource", "entry", "result", "failed", "error", err)
		return
	}
	metrics.RecordPurgeRun("ok")
	logger.Debug("scheduled purge completed", "module", "scheduler", "action", "purge", "resource", "entry", "result", "ok", "count", purged)
}
