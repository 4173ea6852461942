package portfolio

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs periodic refresh passes in the background, so a long-lived
// process keeps its asset cache warm without manual refreshes.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler creates an idle scheduler.
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// AddRefresh schedules a refresh pass. Schedule accepts cron expressions and
// descriptors like "@every 15m". The pass runs without force: the TTL gate
// still decides which symbols actually hit the network.
func (s *Scheduler) AddRefresh(schedule string, r *Refresher, scope RefreshScope) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := r.Refresh(context.Background(), scope, false); err != nil {
			s.log.Error().Err(err).Stringer("scope", scope).Msg("Scheduled refresh failed")
		}
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Stringer("scope", scope).Msg("Refresh scheduled")
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}
