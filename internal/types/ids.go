package types

import (
	"github.com/google/uuid"
)

type ThreadID string
type EntryID string

// NewThreadID returns a correlation token for a fresh course conversation.
func NewThreadID() ThreadID {
	return ThreadID("course_" + uuid.New().String())
}

func NewEntryID() EntryID {
	return EntryID(uuid.New().String())
}
