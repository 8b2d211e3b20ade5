package export

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/signalpro/internal/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs an Exporter on a cron spec.
type Scheduler struct {
	cron     *cron.Cron
	exporter *Exporter
	spec     string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScheduler registers the export job. spec uses the standard five-field
// cron syntax or descriptors such as "@hourly" and "@every 10m".
func NewScheduler(exporter *Exporter, spec string, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		exporter: exporter,
		spec:     spec,
		timeout:  30 * time.Second,
		logger:   logger.OrNop(log),
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// Export already logs and counts failures.
	_, _ = s.exporter.Export(ctx)
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("export scheduler started",
		zap.String("schedule", s.spec),
		zap.Time("next", s.Next()),
	)
}

// Stop halts the scheduler and waits for a running export to finish or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("export still running at shutdown")
	}
	s.logger.Info("export scheduler stopped")
}

// Next returns when the job fires next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
