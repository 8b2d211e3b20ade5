// Package session owns the state of one dashboard view: the active signals,
// the closed-trade history and the refresh loop that drifts confidence.
// A Session is created at view start and must be closed at view end.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/signalpro/internal/config"
	"github.com/newthinker/signalpro/internal/confidence"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/newthinker/signalpro/internal/fixture"
	"github.com/newthinker/signalpro/internal/logger"
	"github.com/newthinker/signalpro/internal/metrics"
	"github.com/newthinker/signalpro/internal/performance"
	"github.com/newthinker/signalpro/internal/storage/history"
	"go.uber.org/zap"
)

// Config holds the refresh loop settings.
type Config struct {
	Interval    time.Duration
	Bounds      confidence.Bounds
	ClampOnSeed bool
	Seed        int64 // 0 = seeded from the clock
}

// DefaultConfig matches config.Defaults().Refresh.
func DefaultConfig() Config {
	return Config{
		Interval: 3 * time.Second,
		Bounds:   confidence.DefaultBounds(),
	}
}

// Validate rejects settings the refresh loop cannot run with.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("refresh interval must be positive, got %s", c.Interval))
	}
	b := c.Bounds
	if b.Floor < 0 || b.Ceiling > 100 || b.Floor >= b.Ceiling {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("refresh bounds must satisfy 0 <= floor < ceiling <= 100, got [%g, %g]", b.Floor, b.Ceiling))
	}
	if b.Amplitude < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("refresh amplitude cannot be negative, got %g", b.Amplitude))
	}
	return nil
}

// ConfigFrom converts the file-level refresh settings.
func ConfigFrom(rc config.RefreshConfig) Config {
	return Config{
		Interval: rc.Interval,
		Bounds: confidence.Bounds{
			Floor:     rc.Floor,
			Ceiling:   rc.Ceiling,
			Amplitude: rc.Amplitude,
		},
		ClampOnSeed: rc.ClampOnSeed,
		Seed:        rc.Seed,
	}
}

// Update is published to subscribers after every refresh tick.
type Update struct {
	Tick    uint64        `json:"tick"`
	At      time.Time     `json:"at"`
	Signals []core.Signal `json:"signals"`
}

// Snapshot is a consistent view of the session at one instant.
type Snapshot struct {
	Live          bool                          `json:"live"`
	Tick          uint64                        `json:"tick"`
	TakenAt       time.Time                     `json:"taken_at"`
	ActiveSignals []core.Signal                 `json:"active_signals"`
	History       []core.HistoricalSignal       `json:"history"`
	Metrics       performance.Metrics           `json:"metrics"`
	Confidence    performance.ConfidenceSummary `json:"confidence"`
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.logger = logger.OrNop(log) }
}

// WithMetrics records refresh activity into reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Session) { s.metrics = reg }
}

// WithRand replaces the random source used for drift.
func WithRand(src confidence.Source) Option {
	return func(s *Session) { s.rand = src }
}

// WithClock replaces time.Now for seeding and update stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithHistoryStore replaces the in-memory history store.
func WithHistoryStore(store history.Store) Option {
	return func(s *Session) { s.history = store }
}

// WithSeedData replaces the fixture data the session starts from.
func WithSeedData(signals []core.Signal, hist []core.HistoricalSignal) Option {
	return func(s *Session) {
		s.seedSignals = signals
		s.seedHistory = hist
		s.seedOverride = true
	}
}

// Session is the state store plus refresh loop for one dashboard view.
type Session struct {
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Registry
	history history.Store
	now     func() time.Time

	randMu sync.Mutex
	rand   confidence.Source

	seedSignals  []core.Signal
	seedHistory  []core.HistoricalSignal
	seedOverride bool

	mu      sync.RWMutex
	active  []core.Signal
	ticks   uint64
	running bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}

	subsMu     sync.Mutex
	subs       map[uint64]chan Update
	nextSub    uint64
	subsClosed bool
}

// New seeds a session from fixtures. It does not start the refresh loop.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
		subs:   make(map[uint64]chan Update),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.rand == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rand = rand.New(rand.NewSource(seed))
	}
	if s.history == nil {
		s.history = history.NewMemoryStore(0)
	}

	now := s.now()
	if !s.seedOverride {
		s.seedSignals = fixture.Signals(now)
		s.seedHistory = fixture.History(now)
	}

	if err := s.seed(context.Background()); err != nil {
		return nil, err
	}
	s.seedSignals, s.seedHistory = nil, nil

	s.recordState()
	s.logger.Info("session initialized",
		zap.Int("active_signals", len(s.active)),
		zap.Int("history", len(s.mustHistory())),
		zap.Duration("interval", cfg.Interval),
		zap.Float64("floor", cfg.Bounds.Floor),
		zap.Float64("ceiling", cfg.Bounds.Ceiling),
	)
	return s, nil
}

func (s *Session) seed(ctx context.Context) error {
	active := make([]core.Signal, 0, len(s.seedSignals))
	for _, sig := range s.seedSignals {
		sig = sig.Clone()
		if err := sig.Validate(); err != nil {
			return fmt.Errorf("seeding active signal %q: %w", sig.Asset, err)
		}
		if sig.ID == "" {
			sig.ID = uuid.NewString()
		}

		if !s.cfg.Bounds.Contains(sig.Confidence) {
			s.logger.Warn("seeded confidence outside refresh bounds",
				zap.String("asset", sig.Asset),
				zap.Float64("confidence", sig.Confidence),
				zap.Float64("floor", s.cfg.Bounds.Floor),
				zap.Float64("ceiling", s.cfg.Bounds.Ceiling),
				zap.Bool("clamped", s.cfg.ClampOnSeed),
			)
			if s.cfg.ClampOnSeed {
				sig.Confidence = confidence.Clamp(sig.Confidence, s.cfg.Bounds.Floor, s.cfg.Bounds.Ceiling)
			}
		}
		active = append(active, sig)
	}
	s.active = active

	for _, h := range s.seedHistory {
		if err := s.history.Save(ctx, h); err != nil {
			return fmt.Errorf("seeding history for %q: %w", h.Asset, err)
		}
	}
	return nil
}

// ActiveSignals returns a copy of the active signals in seed order.
func (s *Session) ActiveSignals() []core.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSignals(s.active)
}

// ActiveSignal returns one active signal by ID.
func (s *Session) ActiveSignal(id string) (core.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sig := range s.active {
		if sig.ID == id {
			return sig.Clone(), nil
		}
	}
	return core.Signal{}, core.ErrSignalNotFound
}

// History returns every closed trade in seed order.
func (s *Session) History(ctx context.Context) ([]core.HistoricalSignal, error) {
	return s.history.List(ctx, history.ListFilter{})
}

// HistoryStore exposes the store for filtered listing.
func (s *Session) HistoryStore() history.Store {
	return s.history
}

// Metrics derives the history metrics. Nothing is cached.
func (s *Session) Metrics(ctx context.Context) (performance.Metrics, error) {
	hist, err := s.History(ctx)
	if err != nil {
		return performance.Metrics{}, err
	}
	return performance.Calculate(hist), nil
}

// UpdateConfidence applies one drift step to signals using the session's
// random source and bounds. The input is not modified.
func (s *Session) UpdateConfidence(signals []core.Signal) []core.Signal {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return confidence.Update(signals, s.rand, s.cfg.Bounds)
}

// Snapshot returns active signals, history and derived metrics together.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	active := cloneSignals(s.active)
	tick := s.ticks
	live := s.running
	s.mu.RUnlock()

	hist, err := s.History(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading history: %w", err)
	}

	return Snapshot{
		Live:          live,
		Tick:          tick,
		TakenAt:       s.now(),
		ActiveSignals: active,
		History:       hist,
		Metrics:       performance.Calculate(hist),
		Confidence:    performance.SummarizeConfidence(active),
	}, nil
}

// Ticks returns how many refresh ticks have been applied.
func (s *Session) Ticks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Running reports whether the refresh loop is active.
func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) mustHistory() []core.HistoricalSignal {
	hist, err := s.History(context.Background())
	if err != nil {
		s.logger.Warn("reading history failed", zap.Error(err))
	}
	return hist
}

func (s *Session) recordState() {
	if s.metrics == nil {
		return
	}
	active := s.ActiveSignals()
	s.metrics.SetActiveSignals(len(active))
	for _, sig := range active {
		s.metrics.SetSignalConfidence(sig.Asset, sig.Confidence)
	}
	m := performance.Calculate(s.mustHistory())
	s.metrics.SetHistoryStats(m.WinRate, m.TotalProfit.InexactFloat64())
}

func cloneSignals(in []core.Signal) []core.Signal {
	out := make([]core.Signal, len(in))
	for i, sig := range in {
		out[i] = sig.Clone()
	}
	return out
}
