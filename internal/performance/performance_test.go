package performance

import (
	"testing"

	"github.com/newthinker/signalpro/internal/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(result core.Result, profit int64) core.HistoricalSignal {
	return core.HistoricalSignal{
		Signal: core.Signal{Asset: "EURUSD", Direction: core.DirectionUp},
		Result: result,
		Profit: decimal.NewFromInt(profit),
	}
}

func TestCalculate_Empty(t *testing.T) {
	m := Calculate(nil)

	assert.Equal(t, 0, m.TotalTrades)
	assert.Equal(t, 0.0, m.WinRate)
	assert.True(t, m.TotalProfit.IsZero())
	assert.Nil(t, m.ProfitFactor)
	assert.False(t, m.ProfitFactorInfinite)
	assert.Equal(t, "n/a", m.FormatProfitFactor())
}

func TestCalculate_FixtureScenario(t *testing.T) {
	history := []core.HistoricalSignal{
		trade(core.ResultWin, 85),
		trade(core.ResultWin, 82),
		trade(core.ResultLoss, -100),
	}

	m := Calculate(history)

	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinTrades)
	assert.Equal(t, 1, m.LossTrades)
	assert.InDelta(t, 66.7, m.WinRate, 0.05)
	assert.Equal(t, "66.7%", FormatWinRate(m.WinRate))
	assert.True(t, m.TotalProfit.Equal(decimal.NewFromInt(67)), "total profit = %s", m.TotalProfit)
	assert.True(t, m.GrossProfit.Equal(decimal.NewFromInt(167)))
	assert.True(t, m.GrossLoss.Equal(decimal.NewFromInt(100)))
	assert.InDelta(t, 22.333, m.AverageProfit, 0.001)

	require.NotNil(t, m.ProfitFactor)
	assert.Equal(t, "1.67", m.FormatProfitFactor())
}

func TestCalculate_WinRateBounds(t *testing.T) {
	cases := [][]core.HistoricalSignal{
		{trade(core.ResultLoss, -1)},
		{trade(core.ResultWin, 1)},
		{trade(core.ResultWin, 1), trade(core.ResultLoss, -1), trade(core.ResultLoss, -1), trade(core.ResultWin, 5)},
	}
	for _, history := range cases {
		m := Calculate(history)
		assert.GreaterOrEqual(t, m.WinRate, 0.0)
		assert.LessOrEqual(t, m.WinRate, 100.0)
		assert.InDelta(t, 100*float64(m.WinTrades)/float64(m.TotalTrades), m.WinRate, 1e-9)
	}
}

func TestCalculate_NoLosses(t *testing.T) {
	m := Calculate([]core.HistoricalSignal{trade(core.ResultWin, 10), trade(core.ResultWin, 5)})

	assert.Equal(t, 100.0, m.WinRate)
	assert.Nil(t, m.ProfitFactor)
	assert.True(t, m.ProfitFactorInfinite)
	assert.Equal(t, "∞", m.FormatProfitFactor())
}

func TestCalculate_OnlyLosses(t *testing.T) {
	m := Calculate([]core.HistoricalSignal{trade(core.ResultLoss, -40), trade(core.ResultLoss, -10)})

	assert.Equal(t, 0.0, m.WinRate)
	assert.True(t, m.TotalProfit.Equal(decimal.NewFromInt(-50)))
	require.NotNil(t, m.ProfitFactor)
	assert.True(t, m.ProfitFactor.IsZero())
}

func TestCalculate_DecimalProfitsAreExact(t *testing.T) {
	h1 := trade(core.ResultWin, 0)
	h1.Profit = decimal.RequireFromString("0.1")
	h2 := trade(core.ResultWin, 0)
	h2.Profit = decimal.RequireFromString("0.2")

	m := Calculate([]core.HistoricalSignal{h1, h2})

	assert.Equal(t, "0.3", m.TotalProfit.String())
}

func TestSummarizeConfidence(t *testing.T) {
	signals := []core.Signal{{Confidence: 82}, {Confidence: 76}, {Confidence: 68}}

	s := SummarizeConfidence(signals)

	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 75.333, s.Mean, 0.001)
	assert.Equal(t, 68.0, s.Min)
	assert.Equal(t, 82.0, s.Max)
}

func TestSummarizeConfidence_Empty(t *testing.T) {
	assert.Equal(t, ConfidenceSummary{}, SummarizeConfidence(nil))
}

func TestFormatProfit(t *testing.T) {
	assert.Equal(t, "+67$", FormatProfit(decimal.NewFromInt(67)))
	assert.Equal(t, "+0$", FormatProfit(decimal.Zero))
	assert.Equal(t, "-100$", FormatProfit(decimal.NewFromInt(-100)))
}
