package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/signalpro/internal/api/response"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/newthinker/signalpro/internal/storage/history"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryHandler serves closed trades.
type HistoryHandler struct {
	store history.Store
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(store history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List returns history entries matching query parameters.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseHistoryFilter(r.URL.Query())
	if err != nil {
		response.Error(w, err)
		return
	}

	entries, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, err)
		return
	}

	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"history": entries,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// Get returns one closed trade by its ID.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entry)
}

// ParseHistoryFilter reads asset, direction, result, from, to, limit and
// offset. Malformed values yield core.ErrInvalidFilter.
func ParseHistoryFilter(q url.Values) (history.ListFilter, error) {
	filter := history.ListFilter{
		Asset: strings.ToUpper(q.Get("asset")),
		Limit: defaultHistoryLimit,
	}

	if d := q.Get("direction"); d != "" {
		filter.Direction = core.Direction(strings.ToUpper(d))
		if !filter.Direction.IsValid() {
			return filter, invalidFilter("unknown direction %q", d)
		}
	}

	if res := q.Get("result"); res != "" {
		filter.Result = core.Result(strings.ToUpper(res))
		if !filter.Result.IsValid() {
			return filter, invalidFilter("unknown result %q", res)
		}
	}

	var err error
	if filter.From, err = parseTime(q.Get("from")); err != nil {
		return filter, invalidFilter("bad from: %v", err)
	}
	if filter.To, err = parseTime(q.Get("to")); err != nil {
		return filter, invalidFilter("bad to: %v", err)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, invalidFilter("to is before from")
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > maxHistoryLimit {
			return filter, invalidFilter("limit must be between 1 and %d", maxHistoryLimit)
		}
		filter.Limit = n
	}

	if offset := q.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return filter, invalidFilter("offset must be a non-negative integer")
		}
		filter.Offset = n
	}

	return filter, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func invalidFilter(format string, args ...any) error {
	return core.WrapError(core.ErrInvalidFilter, fmt.Errorf(format, args...))
}
