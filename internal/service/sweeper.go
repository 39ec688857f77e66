package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper runs the expiry sweep on a fixed interval. Read paths stay
// correct between sweeps because every store read filters on the
// retrievability invariant; the sweep only reconciles stored state.
type Sweeper struct {
	notes    *NoteService
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper constructs a Sweeper.
func NewSweeper(notes *NoteService, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{notes: notes, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled. Blocking; callers start
// it in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.notes.Sweep(ctx, time.Now().UTC()); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}
