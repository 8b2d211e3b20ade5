// internal/storage/history/interface.go
package history

import (
	"context"
	"time"

	"github.com/newthinker/signalpro/internal/core"
)

// Store holds closed trades. Entries are immutable once saved.
type Store interface {
	// Save appends an entry, assigning an ID when it has none.
	Save(ctx context.Context, h core.HistoricalSignal) error

	// GetByID retrieves an entry by its ID.
	GetByID(ctx context.Context, id string) (*core.HistoricalSignal, error)

	// List retrieves entries matching the filter, in insertion order.
	List(ctx context.Context, filter ListFilter) ([]core.HistoricalSignal, error)

	// Count returns the number of entries matching the filter, ignoring Limit and Offset.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing history entries.
type ListFilter struct {
	Asset     string
	Direction core.Direction
	Result    core.Result
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}
