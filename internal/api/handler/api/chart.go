package api

import (
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/signalpro/internal/api/response"
	"github.com/newthinker/signalpro/internal/chart"
)

// ChartHandler serves the price chart as JSON points or a PNG.
type ChartHandler struct {
	cfg           chart.Config
	width, height int
}

// NewChartHandler creates a chart handler rendering images at width x height.
func NewChartHandler(cfg chart.Config, width, height int) *ChartHandler {
	return &ChartHandler{cfg: cfg, width: width, height: height}
}

// Series returns the chart points. A seed query parameter makes the walk
// reproducible.
func (h *ChartHandler) Series(w http.ResponseWriter, r *http.Request) {
	src, err := seedSource(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, chart.Generate(h.cfg, src))
}

// Image returns the chart rendered as a PNG.
func (h *ChartHandler) Image(w http.ResponseWriter, r *http.Request) {
	src, err := seedSource(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	data, err := chart.Render(chart.Generate(h.cfg, src), h.width, h.height)
	if err != nil {
		response.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func seedSource(r *http.Request) (rand.Source, error) {
	s := r.URL.Query().Get("seed")
	if s == "" {
		return rand.NewSource(time.Now().UnixNano()), nil
	}
	seed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, invalidFilter("seed must be an integer")
	}
	return rand.NewSource(seed), nil
}

