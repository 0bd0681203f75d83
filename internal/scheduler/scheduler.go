package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockLens/internal/recorder"
)

// Reset triggers recorded with each session change.
const (
	TriggerCron = "cron"
	TriggerAPI  = "api"
)

// SessionResetter is implemented by collector.CachedFetcher.
type SessionResetter interface {
	Reset()
	SessionID() string
}

// Scheduler manages the cron tasks of the service boundary.
type Scheduler struct {
	Cron     *cron.Cron
	Cache    SessionResetter
	Recorder recorder.Recorder

	log zerolog.Logger
	mu  sync.Mutex
}

// NewScheduler creates a new Scheduler. rec may be nil.
func NewScheduler(cache SessionResetter, rec recorder.Recorder, log zerolog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Cache:    cache,
		Recorder: rec,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the cache session reset task.
func (s *Scheduler) RegisterAll(sessionResetCron string) error {
	if _, err := s.Cron.AddFunc(sessionResetCron, func() { s.ResetSession(TriggerCron) }); err != nil {
		return fmt.Errorf("register session reset task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// ResetSession starts a new fetch cache session and records the change.
// It returns the new session id.
func (s *Scheduler) ResetSession(trigger string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.Cache.SessionID()
	s.Cache.Reset()
	current := s.Cache.SessionID()

	if err := s.Recorder.RecordSession(&recorder.SessionEvent{
		OldSession: old,
		NewSession: current,
		Trigger:    trigger,
	}); err != nil {
		s.log.Error().Err(err).Msg("record session reset")
	}
	return current
}
