// Package state provides the durable storage adapters and the learning
// history built on them.
package state

import "github.com/user/gyaansetu/internal/types"

// Compile-time interface compliance checks.
var _ types.Storage = (*FileStorage)(nil)
var _ types.Storage = (*MemoryStorage)(nil)
var _ types.HistoryStore = (*History)(nil)
