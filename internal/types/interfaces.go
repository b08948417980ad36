package types

// Storage is a durable key/value store. Get reports ok=false for absent keys.
type Storage interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// HistoryStore is the learning history: newest first, bounded.
type HistoryStore interface {
	Record(entry *HistoryEntry) error
	Entries() []*HistoryEntry
	Get(id EntryID) (*HistoryEntry, bool)
	Clear() error
}
