// Package scheduler periodically warms the grid cache.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// jobTimeout bounds one warm-up run.
const jobTimeout = 5 * time.Minute

// Warmer loads the default date of every variant.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Scheduler runs the cache warm-up job on a cron schedule.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	schedule  string
}

// New creates a new Scheduler. schedule is a standard five-field cron
// expression evaluated in UTC.
func New(schedule string, warmer Warmer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		schedule:  schedule,
	}
}

// Start schedules the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		log.Info().Msg("Prewarm schedule not configured; cache warm-up disabled")
		return nil
	}

	if _, err := s.scheduler.Cron(s.schedule).Do(s.run); err != nil {
		return fmt.Errorf("invalid prewarm schedule %q: %w", s.schedule, err)
	}

	s.scheduler.StartAsync()
	log.Info().Str("schedule", s.schedule).Msg("Cache warm-up scheduled")
	return nil
}

// RunNow runs the job once on the calling goroutine.
func (s *Scheduler) RunNow() {
	s.run()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	log.Info().Msg("Running cache warm-up")
	if err := s.warmer.Warm(ctx); err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Cache warm-up failed")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Completed cache warm-up")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
