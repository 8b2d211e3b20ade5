// Package export writes point-in-time dashboard reports to archive storage.
// Reports can be fetched and listed for inspection but are never loaded
// back into a session.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/newthinker/signalpro/internal/logger"
	"github.com/newthinker/signalpro/internal/metrics"
	"github.com/newthinker/signalpro/internal/performance"
	"github.com/newthinker/signalpro/internal/session"
	"github.com/newthinker/signalpro/internal/storage/archive"
	"go.uber.org/zap"
)

// Report is the JSON document written per export.
type Report struct {
	GeneratedAt       time.Time                     `json:"generated_at"`
	Tick              uint64                        `json:"tick"`
	Metrics           performance.Metrics           `json:"metrics"`
	ConfidenceSummary performance.ConfidenceSummary `json:"confidence_summary"`
	ActiveSignals     []core.Signal                 `json:"active_signals"`
	History           []core.HistoricalSignal       `json:"history"`
}

// SnapshotSource is satisfied by *session.Session.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

// Exporter turns session snapshots into archived reports.
type Exporter struct {
	source  SnapshotSource
	store   archive.Storage
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
	newID   func() string
	retain  int // 0 keeps every report
}

// Option customizes an Exporter.
type Option func(*Exporter)

func WithLogger(log *zap.Logger) Option {
	return func(e *Exporter) { e.logger = logger.OrNop(log) }
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(e *Exporter) { e.metrics = reg }
}

func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithRetention keeps only the newest n reports after each export.
func WithRetention(n int) Option {
	return func(e *Exporter) { e.retain = n }
}

// NewExporter creates an exporter writing to store.
func NewExporter(source SnapshotSource, store archive.Storage, opts ...Option) *Exporter {
	e := &Exporter{
		source: source,
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildReport converts a snapshot into a report stamped at t.
func BuildReport(snap session.Snapshot, t time.Time) Report {
	return Report{
		GeneratedAt:       t.UTC(),
		Tick:              snap.Tick,
		Metrics:           snap.Metrics,
		ConfidenceSummary: snap.Confidence,
		ActiveSignals:     snap.ActiveSignals,
		History:           snap.History,
	}
}

const reportsPrefix = "reports"

// ReportPath is the archive key for report id generated at t. Keys sort by
// generation time.
func ReportPath(t time.Time, id string) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/snapshot-%d-%s.json",
		reportsPrefix, t.Year(), t.Month(), t.Day(), t.Unix(), id)
}

// Export writes one report and returns its archive path.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	path, err := e.export(ctx)
	if err != nil {
		e.record("error")
		e.logger.Error("export failed", zap.Error(err))
		return "", err
	}
	e.record("success")
	e.logger.Info("report exported", zap.String("path", path))

	if e.retain > 0 {
		if n, err := e.Prune(ctx, e.retain); err != nil {
			e.logger.Warn("pruning reports failed", zap.Error(err))
		} else if n > 0 {
			e.logger.Info("old reports pruned", zap.Int("deleted", n))
		}
	}
	return path, nil
}

func (e *Exporter) export(ctx context.Context) (string, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("taking snapshot: %w", err)
	}

	now := e.now()
	report := BuildReport(snap, now)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	path := ReportPath(now, e.newID())
	if err := e.store.Write(ctx, path, data); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (e *Exporter) record(status string) {
	if e.metrics != nil {
		e.metrics.RecordExport(status)
	}
}

// Report returns the raw JSON of an exported report.
func (e *Exporter) Report(ctx context.Context, path string) ([]byte, error) {
	ok, err := e.store.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.WrapError(core.ErrReportNotFound, fmt.Errorf("no report at %s", path))
	}
	return e.store.Read(ctx, path)
}

// Reports lists archived report paths, oldest first.
func (e *Exporter) Reports(ctx context.Context) ([]string, error) {
	paths, err := e.store.List(ctx, reportsPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Prune deletes all but the newest keep reports and returns how many were
// deleted.
func (e *Exporter) Prune(ctx context.Context, keep int) (int, error) {
	paths, err := e.Reports(ctx)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(paths) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, p := range paths[:len(paths)-keep] {
		if err := e.store.Delete(ctx, p); err != nil {
			return deleted, fmt.Errorf("deleting %s: %w", p, err)
		}
		deleted++
	}
	return deleted, nil
}
