package scheduler

import (
	"context"
	"time"

	"creatorflow/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the recurring sweep that moves due scheduled posts onto the
// publish queue.
type Scheduler struct {
	cron       *cron.Cron
	contentSvc service.ContentService
	logger     zerolog.Logger
}

// New creates a Scheduler. Jobs are registered at Start.
func New(contentSvc service.ContentService, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		contentSvc: contentSvc,
		logger:     logger.With().Str("component", "Scheduler").Logger(),
	}
}

// Start registers the sweep and launches the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
		defer cancel()

		n, err := s.contentSvc.EnqueueDuePosts(sweepCtx, time.Now().UTC())
		if err != nil {
			s.logger.Error().Err(err).Msg("Scheduled post sweep failed")
			return
		}
		if n > 0 {
			s.logger.Info().Int("enqueued", n).Msg("Enqueued due posts for publishing")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}
