package scheduler

import (
	"context"
	"time"

	"github.com/readmark/readmark/internal/logger"
	"github.com/readmark/readmark/internal/session"
)

// DefaultIdleThreshold is how long a session may sit untouched before
// the reaper closes it (flushing its bookmark).
const DefaultIdleThreshold = 2 * time.Hour

// SessionReaper closes reading sessions that have been idle too long.
// A frontend that crashed or lost its tab never sends the close call;
// the reaper makes sure those sessions still flush their final
// bookmark instead of leaking.
type SessionReaper struct {
	registry  *session.Registry
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

// NewSessionReaper creates a new session reaper.
func NewSessionReaper(
	reg *session.Registry,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *SessionReaper {
	if threshold == 0 {
		threshold = DefaultIdleThreshold
	}
	return &SessionReaper{
		registry:  reg,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic reap loop.
func (sr *SessionReaper) Start(ctx context.Context) error {
	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sr.Reap(ctx)
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the reaper.
func (sr *SessionReaper) Stop() {
	close(sr.stopCh)
}

// Reap closes idle sessions and reports how many were closed.
func (sr *SessionReaper) Reap(ctx context.Context) int {
	closed := sr.registry.CloseIdle(ctx, sr.threshold)
	if closed > 0 {
		sr.logger.Info("reaped idle sessions",
			logger.Int("closed", closed),
			logger.Duration("threshold", sr.threshold))
	} else {
		sr.logger.Debug("no idle sessions to reap")
	}
	return closed
}
