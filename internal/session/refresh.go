package session

import (
	"context"
	"time"

	"github.com/newthinker/signalpro/internal/core"
	"go.uber.org/zap"
)

// Start runs the refresh loop until ctx is cancelled or Close is called.
// It blocks; run it in its own goroutine.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return core.ErrSessionClosed
	}
	if s.running {
		s.mu.Unlock()
		return core.ErrSessionRunning
	}
	s.running = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	defer close(done)
	defer cancel()

	s.logger.Info("refresh loop starting", zap.Duration("interval", s.cfg.Interval))

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh loop stopped", zap.Uint64("ticks", s.Ticks()))
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Tick(); err != nil {
				s.logger.Debug("tick skipped", zap.Error(err))
			}
		}
	}
}

// Tick applies one refresh to the active signals and publishes the result.
// It is what the loop calls on every interval; callers may also drive it
// directly.
func (s *Session) Tick() (Update, error) {
	start := time.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Update{}, core.ErrSessionClosed
	}
	s.active = s.UpdateConfidence(s.active)
	s.ticks++
	u := Update{
		Tick:    s.ticks,
		At:      s.now(),
		Signals: cloneSignals(s.active),
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordRefresh(time.Since(start).Seconds())
		for _, sig := range u.Signals {
			s.metrics.SetSignalConfidence(sig.Asset, sig.Confidence)
		}
	}

	s.publish(u)
	s.logger.Debug("signals refreshed", zap.Uint64("tick", u.Tick), zap.Int("signals", len(u.Signals)))
	return u, nil
}

// Close stops the refresh loop, waits for it to exit and closes every
// subscription. No state change or update happens after Close returns.
// It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.closeSubscribers()
	s.logger.Info("session closed", zap.Uint64("ticks", s.Ticks()))
}
