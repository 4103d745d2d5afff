package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"
)

type staleSessionAbandoner interface {
	AbandonStale(ctx context.Context) (int, error)
}

// SessionSweeper periodically abandons workout sessions left open past their
// maximum age.
type SessionSweeper struct {
	sessions staleSessionAbandoner
	logger   *slog.Logger
	timeout  time.Duration
	cron     *cron.Cron
}

func NewSessionSweeper(sessions staleSessionAbandoner, logger *slog.Logger) *SessionSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweeper{sessions: sessions, logger: logger, timeout: time.Minute}
}

// Start schedules the sweep with a six field cron spec (seconds first)
// evaluated in loc.
func (s *SessionSweeper) Start(schedule string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.NewWithLocation(loc)
	if err := c.AddFunc(schedule, s.Sweep); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

func (s *SessionSweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep runs one pass. Errors are logged; the next tick retries.
func (s *SessionSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	abandoned, err := s.sessions.AbandonStale(ctx)
	if err != nil {
		s.logger.Error("stale session sweep failed", "error", err)
		return
	}
	if abandoned > 0 {
		s.logger.Info("stale session sweep finished", "abandoned", abandoned)
	}
}
