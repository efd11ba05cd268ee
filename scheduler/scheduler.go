// Package scheduler implements background job scheduling
package scheduler

import (
	"context"
	"log"
	"time"

	"trainalert.app/config"
	"trainalert.app/service"
)

// Scheduler manages the periodic reconciliation task. The job runs inline in
// the ticker goroutine, so cycles can never overlap: a slow cycle delays the
// next tick instead of stacking a second one.
type Scheduler struct {
	config         *config.Config
	reconciliation service.ReconciliationServiceInterface
}

// NewScheduler creates and configures a new task scheduler
func NewScheduler(config *config.Config, reconciliation service.ReconciliationServiceInterface) *Scheduler {
	return &Scheduler{
		config:         config,
		reconciliation: reconciliation,
	}
}

// Start begins the scheduler's operations; canceling the context stops it
func (s *Scheduler) Start(ctx context.Context) {
	interval := time.Duration(s.config.Scheduler.UpdateIntervalMinutes) * time.Minute
	go s.scheduleInterval(ctx, interval, s.runReconciliation)
}

func (s *Scheduler) scheduleInterval(ctx context.Context, interval time.Duration, job func(context.Context)) {
	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[DEBUG] Scheduler stopped")
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (s *Scheduler) runReconciliation(ctx context.Context) {
	if err := s.reconciliation.RunCycle(ctx); err != nil {
		log.Printf("Error running reconciliation cycle: %v\n", err)
	}
}
