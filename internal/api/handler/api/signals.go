package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/newthinker/signalpro/internal/api/response"
	"github.com/newthinker/signalpro/internal/core"
)

// SignalSource provides the live signals. *session.Session satisfies it.
type SignalSource interface {
	ActiveSignals() []core.Signal
	ActiveSignal(id string) (core.Signal, error)
}

// SignalsHandler handles active signal requests.
type SignalsHandler struct {
	src SignalSource
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(src SignalSource) *SignalsHandler {
	return &SignalsHandler{src: src}
}

// List returns the active signals in display order, optionally narrowed by
// asset and direction.
func (h *SignalsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asset := strings.ToUpper(q.Get("asset"))

	var direction core.Direction
	if d := q.Get("direction"); d != "" {
		direction = core.Direction(strings.ToUpper(d))
		if !direction.IsValid() {
			response.Error(w, core.WrapError(core.ErrInvalidFilter, fmt.Errorf("unknown direction %q", d)))
			return
		}
	}

	signals := []core.Signal{}
	for _, sig := range h.src.ActiveSignals() {
		if asset != "" && sig.Asset != asset {
			continue
		}
		if direction != "" && sig.Direction != direction {
			continue
		}
		signals = append(signals, sig)
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"signals": signals,
		"total":   len(signals),
	})
}

// GetByID returns a single active signal.
func (h *SignalsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	sig, err := h.src.ActiveSignal(r.PathValue("id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, sig)
}
