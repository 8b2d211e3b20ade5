// Package fixture holds the illustrative signals and trade history a
// dashboard session is seeded with. Timestamps are relative to the time
// passed in, everything else is constant.
package fixture

import (
	"time"

	"github.com/newthinker/signalpro/internal/core"
	"github.com/shopspring/decimal"
)

// Signals returns the active signal fixtures, newest first.
func Signals(now time.Time) []core.Signal {
	return []core.Signal{
		{
			Asset:                 "EURUSD",
			Timestamp:             now,
			Direction:             core.DirectionUp,
			RecommendedExpiration: 120,
			EntryPrice:            decimal.RequireFromString("1.09532"),
			Confidence:            82,
			ExpectedMovePct:       0.12,
			Reasons: []string{
				"EMA8 crossed above EMA21",
				"Positive trade imbalance +220%",
				"ML ensemble forecasts UP (prob 0.81)",
			},
			Indicators: core.Indicators{
				EMA8:               1.09530,
				EMA21:              1.09510,
				EMA50:              1.09460,
				RSI14:              48.5,
				MACDHist:           0.00008,
				ATR14:              0.00012,
				VWAP:               1.09525,
				OrderBookImbalance: 0.32,
			},
			ModelVotes: core.ModelVotes{
				RuleBased:          true,
				MLModel1:           true,
				MLModel2:           true,
				EnsembleConfidence: 82,
			},
		},
		{
			Asset:                 "BTCUSDT",
			Timestamp:             now.Add(-120 * time.Second),
			Direction:             core.DirectionDown,
			RecommendedExpiration: 180,
			EntryPrice:            decimal.RequireFromString("43250.50"),
			Confidence:            76,
			ExpectedMovePct:       -0.18,
			Reasons: []string{
				"EMA8 broke below EMA21",
				"RSI overbought (72.3)",
				"Negative orderbook imbalance -0.41",
			},
			Indicators: core.Indicators{
				EMA8:               43240.00,
				EMA21:              43280.00,
				EMA50:              43320.00,
				RSI14:              72.3,
				MACDHist:           -12.5,
				ATR14:              145.0,
				VWAP:               43260.00,
				OrderBookImbalance: -0.41,
			},
			ModelVotes: core.ModelVotes{
				RuleBased:          true,
				MLModel1:           true,
				MLModel2:           false,
				EnsembleConfidence: 76,
			},
		},
		{
			Asset:                 "GBPUSD",
			Timestamp:             now.Add(-240 * time.Second),
			Direction:             core.DirectionUp,
			RecommendedExpiration: 60,
			EntryPrice:            decimal.RequireFromString("1.27145"),
			Confidence:            68,
			ExpectedMovePct:       0.08,
			Reasons: []string{
				"Resistance level breakout",
				"Positive volume +150%",
				"MACD histogram rising",
			},
			Indicators: core.Indicators{
				EMA8:               1.27140,
				EMA21:              1.27120,
				EMA50:              1.27100,
				RSI14:              52.1,
				MACDHist:           0.00015,
				ATR14:              0.00018,
				VWAP:               1.27135,
				OrderBookImbalance: 0.22,
			},
			ModelVotes: core.ModelVotes{
				RuleBased:          true,
				MLModel1:           true,
				MLModel2:           true,
				EnsembleConfidence: 68,
			},
		},
	}
}

// outcomes pairs with Signals by index.
var outcomes = []struct {
	result core.Result
	profit int64
}{
	{core.ResultWin, 85},
	{core.ResultWin, 82},
	{core.ResultLoss, -100},
}

// History returns the closed-trade fixtures. Each entry is a copy of the
// matching active signal fixture with its outcome attached.
func History(now time.Time) []core.HistoricalSignal {
	signals := Signals(now)
	history := make([]core.HistoricalSignal, 0, len(outcomes))
	for i, o := range outcomes {
		history = append(history, core.HistoricalSignal{
			Signal: signals[i].Clone(),
			Result: o.result,
			Profit: decimal.NewFromInt(o.profit),
		})
	}
	return history
}
