// internal/storage/history/memory.go
package history

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/newthinker/signalpro/internal/core"
)

// MemoryStore is an in-memory history store. Once maxSize is reached the
// oldest entries are dropped. A maxSize of 0 means unbounded.
type MemoryStore struct {
	entries []core.HistoricalSignal
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		entries: make([]core.HistoricalSignal, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds an entry to the store.
func (m *MemoryStore) Save(ctx context.Context, h core.HistoricalSignal) error {
	if err := h.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := core.HistoricalSignal{Signal: h.Signal.Clone(), Result: h.Result, Profit: h.Profit}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	m.entries = append(m.entries, entry)

	if m.maxSize > 0 && len(m.entries) > m.maxSize {
		m.entries = m.entries[len(m.entries)-m.maxSize:]
	}

	return nil
}

// GetByID retrieves an entry by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*core.HistoricalSignal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.entries {
		if m.entries[i].ID == id {
			h := m.copyOf(i)
			return &h, nil
		}
	}
	return nil, core.ErrSignalNotFound
}

// List returns entries matching the filter.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.HistoricalSignal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []core.HistoricalSignal{}
	skipped := 0
	for i := range m.entries {
		if !matches(m.entries[i], filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
		result = append(result, m.copyOf(i))
	}

	return result, nil
}

// Count returns the count of matching entries.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, h := range m.entries {
		if matches(h, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) copyOf(i int) core.HistoricalSignal {
	h := m.entries[i]
	h.Signal = h.Signal.Clone()
	return h
}

func matches(h core.HistoricalSignal, filter ListFilter) bool {
	if filter.Asset != "" && h.Asset != filter.Asset {
		return false
	}
	if filter.Direction != "" && h.Direction != filter.Direction {
		return false
	}
	if filter.Result != "" && h.Result != filter.Result {
		return false
	}
	if !filter.From.IsZero() && h.Timestamp.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && h.Timestamp.After(filter.To) {
		return false
	}
	return true
}
