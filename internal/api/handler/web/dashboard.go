// internal/api/handler/web/dashboard.go
package web

import (
	"context"
	"encoding/base64"
	"html/template"
	"math/rand"
	"net/http"
	"strings"
	"time"

	handler "github.com/newthinker/signalpro/internal/api/handler/api"
	"github.com/newthinker/signalpro/internal/chart"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/newthinker/signalpro/internal/performance"
	"github.com/newthinker/signalpro/internal/session"
	"go.uber.org/zap"
)

// SnapshotSource is satisfied by *session.Session.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

// SignalView is one active signal card.
type SignalView struct {
	ID         string
	Asset      string
	Direction  string
	Up         bool
	Confidence float64
	Time       string
	Reasons    []string
	Votes      int
}

// HistoryView is one row of the trade history table.
type HistoryView struct {
	Asset     string
	Direction string
	Result    string
	Win       bool
	Profit    string
	Time      string
}

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title     string
	Summary   handler.Summary
	Signals   []SignalView
	History   []HistoryView
	Asset     string
	ChartURI  template.URL // empty when rendering failed
	StreamURL string
}

// Dashboard renders the dashboard page
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.src.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	data := DashboardData{
		Title:     "Dashboard",
		Summary:   handler.NewSummary(snap),
		Signals:   signalViews(snap.ActiveSignals),
		History:   historyViews(snap.History),
		Asset:     h.opts.Chart.Asset,
		ChartURI:  h.chartURI(),
		StreamURL: streamURL(r),
	}

	h.render(w, "dashboard.html", data)
}

func (h *Handler) chartURI() template.URL {
	series := chart.Generate(h.opts.Chart, rand.NewSource(time.Now().UnixNano()))
	png, err := chart.Render(series, h.opts.ChartWidth, h.opts.ChartHeight)
	if err != nil {
		h.logger.Warn("rendering dashboard chart", zap.Error(err))
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

// streamURL keeps the api_key query parameter so the websocket passes auth.
func streamURL(r *http.Request) string {
	u := "/api/v1/stream"
	if key := r.URL.Query().Get("api_key"); key != "" {
		u += "?api_key=" + key
	}
	return u
}

func signalViews(signals []core.Signal) []SignalView {
	views := make([]SignalView, len(signals))
	for i, s := range signals {
		views[i] = SignalView{
			ID:         s.ID,
			Asset:      s.Asset,
			Direction:  string(s.Direction),
			Up:         s.Direction == core.DirectionUp,
			Confidence: s.Confidence,
			Time:       s.Timestamp.Format("15:04:05"),
			Reasons:    s.Reasons,
			Votes:      s.ModelVotes.Agreeing(),
		}
	}
	return views
}

func historyViews(history []core.HistoricalSignal) []HistoryView {
	views := make([]HistoryView, len(history))
	for i, h := range history {
		views[i] = HistoryView{
			Asset:     h.Asset,
			Direction: string(h.Direction),
			Result:    strings.ToUpper(string(h.Result)),
			Win:       h.IsWin(),
			Profit:    performance.FormatProfit(h.Profit),
			Time:      h.Timestamp.Format("2006-01-02 15:04"),
		}
	}
	return views
}
