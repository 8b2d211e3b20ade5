package alert

import (
	"context"
	"strings"

	"github.com/newthinker/signalpro/internal/core"
	"github.com/newthinker/signalpro/internal/performance"
	"github.com/newthinker/signalpro/internal/session"
)

// Subscriber is satisfied by *session.Session.
type Subscriber interface {
	Subscribe(buffer int) (<-chan session.Update, func())
}

// SignalMetrics flattens active signals into rule inputs:
// active_signals, min/max/mean_confidence and confidence_<asset>
// (asset lower-cased, e.g. confidence_eurusd).
func SignalMetrics(signals []core.Signal) map[string]float64 {
	summary := performance.SummarizeConfidence(signals)
	m := map[string]float64{
		"active_signals":  float64(summary.Count),
		"min_confidence":  summary.Min,
		"max_confidence":  summary.Max,
		"mean_confidence": summary.Mean,
	}
	for _, s := range signals {
		m["confidence_"+strings.ToLower(s.Asset)] = s.Confidence
	}
	return m
}

// Watch evaluates rules after every session update until ctx is done or the
// session closes.
func Watch(ctx context.Context, src Subscriber, e *Evaluator, rules []Rule) {
	updates, unsubscribe := src.Subscribe(4)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			e.SetMetrics(SignalMetrics(u.Signals))
			e.EvaluateAll(ctx, rules)
		}
	}
}
