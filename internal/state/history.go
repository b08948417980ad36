// internal/state/history.go
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/gyaansetu/internal/types"
)

const (
	// HistoryKey is the storage key holding the serialized history list.
	HistoryKey = "learningHistory"
	// HistoryCapacity bounds the number of remembered lessons.
	HistoryCapacity = 10
)

// History is the recent-lessons log: newest first, capped at
// HistoryCapacity, persisted as a whole list on every change.
type History struct {
	storage types.Storage
	mu      sync.RWMutex
	entries []*types.HistoryEntry
}

// NewHistory creates a History over storage and loads any saved entries.
func NewHistory(storage types.Storage) *History {
	h := &History{storage: storage}
	h.entries = h.Load()
	return h
}

// Load reads the persisted list. Absent or unreadable storage yields an
// empty list; it never fails.
func (h *History) Load() []*types.HistoryEntry {
	data, ok, err := h.storage.Get(HistoryKey)
	if err != nil {
		slog.Warn("history unavailable", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var entries []*types.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("discarding corrupt history", "error", err)
		return nil
	}

	out := entries[:0]
	for _, e := range entries {
		if e != nil {
			out = append(out, e)
		}
	}
	if len(out) > HistoryCapacity {
		out = out[:HistoryCapacity]
	}
	return out
}

// Record prepends entry, drops the oldest beyond capacity and persists
// the list, replacing the previous content.
func (h *History) Record(entry *types.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := min(len(h.entries), HistoryCapacity-1)
	updated := make([]*types.HistoryEntry, 0, n+1)
	updated = append(updated, entry)
	updated = append(updated, h.entries[:n]...)

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := h.storage.Set(HistoryKey, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	h.entries = updated
	return nil
}

// Entries returns a snapshot of the history, newest first.
func (h *History) Entries() []*types.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*types.HistoryEntry(nil), h.entries...)
}

// Get finds an entry by ID.
func (h *History) Get(id types.EntryID) (*types.HistoryEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Clear empties the history and removes the persisted key.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.storage.Remove(HistoryKey); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	h.entries = nil
	return nil
}
