// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/avykov/authcore/internal/config"
	"github.com/avykov/authcore/internal/database/users"
)

// TokenCleanupScheduler periodically clears expired email-verification tokens
// so stale tokens do not accumulate on unverified accounts.
type TokenCleanupScheduler struct {
	users  *users.Repository
	config config.Cleanup

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isCleaning bool
	cancelFunc context.CancelFunc
}

// NewTokenCleanupScheduler creates a new scheduler instance.
func NewTokenCleanupScheduler(repo *users.Repository, cfg config.Cleanup) *TokenCleanupScheduler {
	return &TokenCleanupScheduler{
		users:  repo,
		config: cfg,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if cleanup is enabled.
func (s *TokenCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Info().Msg("token cleanup scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runCleanup()
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Info().Str("schedule", s.config.Schedule).Msg("token cleanup scheduler: started")

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *TokenCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Info().Msg("token cleanup scheduler: stopped")
}

// RunNow triggers an immediate cleanup.
func (s *TokenCleanupScheduler) RunNow() {
	go s.runCleanup()
}

// IsRunning returns whether the scheduler is active.
func (s *TokenCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next cleanup will occur.
func (s *TokenCleanupScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runCleanup performs the actual cleanup pass.
func (s *TokenCleanupScheduler) runCleanup() {
	s.mu.Lock()
	if s.isCleaning {
		s.mu.Unlock()
		log.Info().Msg("token cleanup: skipped (already running)")
		return
	}
	s.isCleaning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isCleaning = false
		s.mu.Unlock()
	}()

	startTime := time.Now()
	cleared, err := s.users.DeleteExpiredVerificationTokens(startTime)
	if err != nil {
		log.Error().Err(err).Msg("token cleanup: failed")
		return
	}

	if cleared > 0 {
		log.Info().
			Int64("cleared", cleared).
			Dur("duration", time.Since(startTime)).
			Msg("token cleanup: cleared expired verification tokens")
	}
}
