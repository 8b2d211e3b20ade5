package api

import (
	"context"
	"net/http"

	"github.com/newthinker/signalpro/internal/api/response"
	"github.com/newthinker/signalpro/internal/performance"
	"github.com/newthinker/signalpro/internal/session"
)

// SnapshotSource is satisfied by *session.Session.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

// Summary backs the dashboard cards.
type Summary struct {
	Live          bool                          `json:"live"`
	Tick          uint64                        `json:"tick"`
	ActiveSignals int                           `json:"active_signals"`
	Metrics       performance.Metrics           `json:"metrics"`
	Confidence    performance.ConfidenceSummary `json:"confidence"`
	Display       SummaryDisplay                `json:"display"`
}

// SummaryDisplay holds the preformatted card values.
type SummaryDisplay struct {
	WinRate      string `json:"win_rate"`
	TotalProfit  string `json:"total_profit"`
	ProfitFactor string `json:"profit_factor"`
}

// NewSummary derives the card values from a snapshot.
func NewSummary(snap session.Snapshot) Summary {
	return Summary{
		Live:          snap.Live,
		Tick:          snap.Tick,
		ActiveSignals: len(snap.ActiveSignals),
		Metrics:       snap.Metrics,
		Confidence:    snap.Confidence,
		Display: SummaryDisplay{
			WinRate:      performance.FormatWinRate(snap.Metrics.WinRate),
			TotalProfit:  performance.FormatProfit(snap.Metrics.TotalProfit),
			ProfitFactor: snap.Metrics.FormatProfitFactor(),
		},
	}
}

// SummaryHandler serves derived metrics and full snapshots.
type SummaryHandler struct {
	src SnapshotSource
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(src SnapshotSource) *SummaryHandler {
	return &SummaryHandler{src: src}
}

// Summary returns the dashboard card values.
func (h *SummaryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	snap, err := h.src.Snapshot(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, NewSummary(snap))
}

// Snapshot returns active signals, history and metrics in one document.
func (h *SummaryHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.src.Snapshot(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, snap)
}
