package performance

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/shopspring/decimal"
)

// Metrics holds the figures derived from a trade history
type Metrics struct {
	TotalTrades   int             `json:"total_trades"`
	WinTrades     int             `json:"win_trades"`
	LossTrades    int             `json:"loss_trades"`
	WinRate       float64         `json:"win_rate"` // percent, 0 when there are no trades
	TotalProfit   decimal.Decimal `json:"total_profit"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	GrossLoss     decimal.Decimal `json:"gross_loss"` // absolute value
	AverageProfit float64         `json:"average_profit"`

	// ProfitFactor is nil when there are no losing trades. ProfitFactorInfinite
	// distinguishes "gains but no losses" from "nothing traded".
	ProfitFactor         *decimal.Decimal `json:"profit_factor"`
	ProfitFactorInfinite bool             `json:"profit_factor_infinite"`
}

// Calculate computes metrics from history. It is recomputed on every read;
// nothing is cached.
func Calculate(history []core.HistoricalSignal) Metrics {
	m := Metrics{
		TotalTrades: len(history),
		TotalProfit: decimal.Zero,
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
	}
	if len(history) == 0 {
		return m
	}

	profits := make([]float64, 0, len(history))
	for _, h := range history {
		if h.IsWin() {
			m.WinTrades++
		} else {
			m.LossTrades++
		}

		m.TotalProfit = m.TotalProfit.Add(h.Profit)
		switch {
		case h.Profit.IsPositive():
			m.GrossProfit = m.GrossProfit.Add(h.Profit)
		case h.Profit.IsNegative():
			m.GrossLoss = m.GrossLoss.Add(h.Profit.Abs())
		}
		profits = append(profits, h.Profit.InexactFloat64())
	}

	m.WinRate = float64(m.WinTrades) / float64(m.TotalTrades) * 100

	if avg, err := stats.Mean(profits); err == nil {
		m.AverageProfit = avg
	}

	if m.GrossLoss.IsPositive() {
		pf := m.GrossProfit.Div(m.GrossLoss).Round(4)
		m.ProfitFactor = &pf
	} else if m.GrossProfit.IsPositive() {
		m.ProfitFactorInfinite = true
	}

	return m
}

// ConfidenceSummary describes the spread of confidence across active signals.
type ConfidenceSummary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// SummarizeConfidence returns a zero summary for an empty slice.
func SummarizeConfidence(signals []core.Signal) ConfidenceSummary {
	if len(signals) == 0 {
		return ConfidenceSummary{}
	}

	values := make(stats.Float64Data, len(signals))
	for i, s := range signals {
		values[i] = s.Confidence
	}

	summary := ConfidenceSummary{Count: len(values)}
	summary.Mean, _ = values.Mean()
	summary.Min, _ = values.Min()
	summary.Max, _ = values.Max()
	return summary
}

// FormatProfit renders a profit the way the dashboard shows it: "+67$", "-33$".
func FormatProfit(p decimal.Decimal) string {
	if p.IsNegative() {
		return p.String() + "$"
	}
	return "+" + p.String() + "$"
}

// FormatWinRate renders a win rate with one decimal place.
func FormatWinRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// FormatProfitFactor renders the profit factor, "∞" or "n/a".
func (m Metrics) FormatProfitFactor() string {
	switch {
	case m.ProfitFactor != nil:
		return m.ProfitFactor.StringFixed(2)
	case m.ProfitFactorInfinite:
		return "∞"
	default:
		return "n/a"
	}
}
