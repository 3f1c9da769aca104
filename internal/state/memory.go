package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/treegrid/pkg/core"
)

func init() {
	Register("memory", func(_ context.Context, _ core.StoreConfig, logger *slog.Logger) (core.Store, error) {
		return NewMemoryStore(logger), nil
	})
}

// MemoryStore keeps records and the move journal in process memory.
// Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []core.Record
	index   map[core.RecordID]int
	moves   []core.MoveEvent
	logger  *slog.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MemoryStore{
		index:  make(map[core.RecordID]int),
		logger: logger,
	}
}

// LoadRecords returns copies of the stored records in insertion order.
func (s *MemoryStore) LoadRecords(_ context.Context) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

// ReplaceRecords swaps in a new forest and clears the journal.
func (s *MemoryStore) ReplaceRecords(_ context.Context, records []core.Record) error {
	stored := make([]core.Record, len(records))
	index := make(map[core.RecordID]int, len(records))
	for i, r := range records {
		stored[i] = r.Clone()
		index[r.ID] = i
	}

	s.mu.Lock()
	s.records = stored
	s.index = index
	s.moves = nil
	s.mu.Unlock()

	s.logger.Debug("records replaced", "store", "memory", "count", len(records))
	return nil
}

// CommitMove updates the parent and journals the event.
func (s *MemoryStore) CommitMove(_ context.Context, ev core.MoveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[ev.RecordID]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrNotFound, ev.RecordID)
	}
	s.records[i].ParentID = ev.NewParentID
	s.moves = append(s.moves, ev)
	return nil
}

// ListMoves returns up to limit moves, newest first. limit <= 0 returns all.
func (s *MemoryStore) ListMoves(_ context.Context, limit int) ([]core.MoveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.moves)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.MoveEvent, 0, n)
	for i := len(s.moves) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.moves[i])
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
