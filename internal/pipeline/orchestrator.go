package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs background reload requests on a single worker goroutine.
// Requests that arrive while one is already pending are coalesced.
type Scheduler struct {
	reloader *Reloader
	queue    chan string
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(r *Reloader, log *slog.Logger) *Scheduler {
	return &Scheduler{
		reloader: r,
		queue:    make(chan string, 1),
		log:      log,
	}
}

// Start launches the worker and the job history cleanup.
func (s *Scheduler) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case trigger := <-s.queue:
				if _, err := s.reloader.Reload(workerCtx, trigger); err != nil {
					s.log.Error("background reload failed", "trigger", trigger, "error", err)
				}
			}
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				s.reloader.Jobs().Cleanup()
			}
		}
	}()
}

// Stop waits for an in-flight reload to observe cancellation and exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Request queues a reload. It returns false when one is already pending,
// in which case the pending reload will pick up this change too.
func (s *Scheduler) Request(trigger string) bool {
	select {
	case s.queue <- trigger:
		return true
	default:
		s.log.Debug("reload already pending", "trigger", trigger)
		return false
	}
}
