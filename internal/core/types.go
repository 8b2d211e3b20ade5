package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side a signal recommends.
type Direction string

const (
	DirectionUp       Direction = "UP"
	DirectionDown     Direction = "DOWN"
	DirectionNoSignal Direction = "NO_SIGNAL"
)

// IsValid reports whether d is one of the known directions.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionUp, DirectionDown, DirectionNoSignal:
		return true
	}
	return false
}

// Result is the outcome of a closed trade.
type Result string

const (
	ResultWin  Result = "WIN"
	ResultLoss Result = "LOSS"
)

// IsValid reports whether r is WIN or LOSS.
func (r Result) IsValid() bool {
	return r == ResultWin || r == ResultLoss
}

// Indicators holds the technical values a signal was produced from.
type Indicators struct {
	EMA8               float64 `json:"ema8"`
	EMA21              float64 `json:"ema21"`
	EMA50              float64 `json:"ema50"`
	RSI14              float64 `json:"rsi14"`
	MACDHist           float64 `json:"macd_hist"`
	ATR14              float64 `json:"atr14"`
	VWAP               float64 `json:"vwap"`
	OrderBookImbalance float64 `json:"orderbook_imbalance"`
}

// ModelVotes records which models agreed with the signal.
type ModelVotes struct {
	RuleBased          bool    `json:"rule_based"`
	MLModel1           bool    `json:"ml_model_1"`
	MLModel2           bool    `json:"ml_model_2"`
	EnsembleConfidence float64 `json:"ensemble_confidence"`
}

// Agreeing returns how many of the three models voted for the signal.
func (v ModelVotes) Agreeing() int {
	n := 0
	for _, ok := range []bool{v.RuleBased, v.MLModel1, v.MLModel2} {
		if ok {
			n++
		}
	}
	return n
}

// Signal is a snapshot of a trading opportunity.
type Signal struct {
	ID                    string          `json:"id"`
	Asset                 string          `json:"asset"`
	Timestamp             time.Time       `json:"timestamp"`
	Direction             Direction       `json:"direction"`
	RecommendedExpiration int             `json:"recommended_expiration"` // seconds
	EntryPrice            decimal.Decimal `json:"entry_price"`
	Confidence            float64         `json:"confidence"` // percent
	ExpectedMovePct       float64         `json:"expected_move_pct"`
	Reasons               []string        `json:"reasons"`
	Indicators            Indicators      `json:"indicators"`
	ModelVotes            ModelVotes      `json:"model_votes"`
}

// Validate checks the fields every signal must carry.
func (s Signal) Validate() error {
	if s.Asset == "" {
		return WrapError(ErrInvalidSignal, fmt.Errorf("asset is empty"))
	}
	if !s.Direction.IsValid() {
		return WrapError(ErrInvalidSignal, fmt.Errorf("unknown direction %q", s.Direction))
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return WrapError(ErrInvalidSignal,
			fmt.Errorf("confidence must be between 0 and 100, got %f", s.Confidence))
	}
	return nil
}

// Clone returns a copy that shares no slices with s.
func (s Signal) Clone() Signal {
	c := s
	if s.Reasons != nil {
		c.Reasons = make([]string, len(s.Reasons))
		copy(c.Reasons, s.Reasons)
	}
	return c
}

// HistoricalSignal is a signal whose trade has closed.
type HistoricalSignal struct {
	Signal
	Result Result          `json:"result"`
	Profit decimal.Decimal `json:"profit"`
}

// Validate checks the embedded signal and the outcome fields.
func (h HistoricalSignal) Validate() error {
	if err := h.Signal.Validate(); err != nil {
		return err
	}
	if !h.Result.IsValid() {
		return WrapError(ErrInvalidSignal, fmt.Errorf("unknown result %q", h.Result))
	}
	return nil
}

// IsWin returns true if the trade closed as a win
func (h HistoricalSignal) IsWin() bool {
	return h.Result == ResultWin
}
