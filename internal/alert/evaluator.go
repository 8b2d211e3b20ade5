package alert

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/signalpro/internal/logger"
	"go.uber.org/zap"
)

// Alert is a fired rule.
type Alert struct {
	Rule     string    `json:"rule"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	FiredAt  time.Time `json:"fired_at"`
}

// Notifier delivers fired alerts.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a Alert) error
}

// Evaluator evaluates alert rules and sends notifications.
type Evaluator struct {
	notifiers []Notifier
	metrics   map[string]float64
	cooldown  time.Duration
	logger    *zap.Logger

	// Track pending alerts (waiting for "for" duration)
	pending map[string]time.Time
	// Track last fired time for cooldown
	lastFired map[string]time.Time

	now func() time.Time

	mu sync.Mutex
}

// NewEvaluator creates a new alert evaluator.
func NewEvaluator(notifiers []Notifier, log *zap.Logger) *Evaluator {
	return &Evaluator{
		notifiers: notifiers,
		metrics:   make(map[string]float64),
		cooldown:  5 * time.Minute,
		logger:    logger.OrNop(log),
		pending:   make(map[string]time.Time),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetMetrics updates the current metrics.
func (e *Evaluator) SetMetrics(metrics map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = metrics
}

// SetCooldown sets the cooldown duration between alerts.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldown = d
}

// Evaluate evaluates a single rule and notifies if it fires. It reports
// whether the rule fired.
func (e *Evaluator) Evaluate(ctx context.Context, rule Rule) bool {
	a, ok := e.check(rule)
	if !ok {
		return false
	}

	// Notify outside the lock; delivery may be slow.
	for _, n := range e.notifiers {
		if err := n.Notify(ctx, a); err != nil {
			e.logger.Warn("alert delivery failed",
				zap.String("notifier", n.Name()),
				zap.String("rule", rule.Name),
				zap.Error(err),
			)
		}
	}
	e.logger.Info("alert fired",
		zap.String("rule", rule.Name),
		zap.String("severity", rule.Severity),
		zap.Float64("value", a.Value),
	)
	return true
}

func (e *Evaluator) check(rule Rule) (Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	if !rule.Evaluate(e.metrics) {
		delete(e.pending, rule.Name)
		return Alert{}, false
	}

	if rule.For > 0 {
		pendingSince, isPending := e.pending[rule.Name]
		if !isPending {
			e.pending[rule.Name] = now
			return Alert{}, false
		}
		if now.Sub(pendingSince) < rule.For {
			return Alert{}, false
		}
	}

	lastFired, hasFired := e.lastFired[rule.Name]
	if hasFired && now.Sub(lastFired) < e.cooldown {
		return Alert{}, false
	}

	e.lastFired[rule.Name] = now
	delete(e.pending, rule.Name)

	metric := rule.Metric()
	return Alert{
		Rule:     rule.Name,
		Severity: rule.Severity,
		Message:  rule.FormatMessage(e.metrics),
		Metric:   metric,
		Value:    e.metrics[metric],
		FiredAt:  now,
	}, true
}

// EvaluateAll evaluates all rules and returns how many fired.
func (e *Evaluator) EvaluateAll(ctx context.Context, rules []Rule) int {
	fired := 0
	for _, rule := range rules {
		if e.Evaluate(ctx, rule) {
			fired++
		}
	}
	return fired
}
