package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/newthinker/signalpro/internal/chart"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/newthinker/signalpro/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	snap session.Snapshot
	err  error
}

func (s stubSource) Snapshot(ctx context.Context) (session.Snapshot, error) {
	return s.snap, s.err
}

var opts = Options{
	Chart:       chart.Config{Asset: "EURUSD", Points: 20, BasePrice: 1.095, Spread: chart.DefaultSpread},
	ChartWidth:  400,
	ChartHeight: 200,
}

func testSnapshot() session.Snapshot {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return session.Snapshot{
		Live: true,
		ActiveSignals: []core.Signal{
			{ID: "sig-1", Asset: "EURUSD", Direction: core.DirectionUp, Confidence: 82, Timestamp: at},
			{ID: "sig-2", Asset: "BTCUSDT", Direction: core.DirectionDown, Confidence: 75.5, Timestamp: at},
		},
		History: []core.HistoricalSignal{
			{Signal: core.Signal{Asset: "EURUSD", Direction: core.DirectionUp, Timestamp: at}, Result: core.ResultWin, Profit: decimal.NewFromInt(85)},
			{Signal: core.Signal{Asset: "GBPUSD", Direction: core.DirectionUp, Timestamp: at}, Result: core.ResultLoss, Profit: decimal.NewFromInt(-100)},
		},
	}
}

func TestDashboard_RendersSnapshot(t *testing.T) {
	h, err := NewHandler(stubSource{snap: testSnapshot()}, "", opts)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `data-id="sig-1"`)
	assert.Contains(t, body, "82.0%")
	assert.Contains(t, body, "75.5%")
	assert.Contains(t, body, "+85$")
	assert.Contains(t, body, "-100$")
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "live")
}

func TestDashboard_StreamURLKeepsAPIKey(t *testing.T) {
	h, err := NewHandler(stubSource{snap: testSnapshot()}, "", opts)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/?api_key=k1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_key=k1")
}

func TestDashboard_SessionClosed(t *testing.T) {
	h, err := NewHandler(stubSource{err: errors.New("session closed")}, "", opts)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewHandlerWithFS(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html":    {Data: []byte(`{{template "content" .}}`)},
		"dashboard.html": {Data: []byte(`{{define "content"}}{{len .Signals}} signals{{end}}`)},
	}

	h, err := NewHandlerWithFS(stubSource{snap: testSnapshot()}, fsys, opts)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "2 signals", w.Body.String())
}

func TestNewHandlerWithFS_MissingTemplate(t *testing.T) {
	_, err := NewHandlerWithFS(stubSource{}, fstest.MapFS{}, opts)
	assert.Error(t, err)
}

func TestHistoryViews(t *testing.T) {
	views := historyViews(testSnapshot().History)
	require.Len(t, views, 2)
	assert.True(t, views[0].Win)
	assert.Equal(t, "WIN", views[0].Result)
	assert.False(t, views[1].Win)
	assert.Equal(t, "2025-03-14 09:30", views[1].Time)
}
