package types

import (
	"strings"
	"testing"
)

func TestNewThreadID(t *testing.T) {
	id := NewThreadID()
	if !strings.HasPrefix(string(id), "course_") {
		t.Errorf("expected course_ prefix, got %s", id)
	}
	if len(string(id)) != len("course_")+36 {
		t.Errorf("expected UUID suffix, got %s", id)
	}
	if NewThreadID() == id {
		t.Error("expected distinct thread IDs")
	}
}

func TestNewEntryID(t *testing.T) {
	id := NewEntryID()
	if len(string(id)) != 36 {
		t.Errorf("expected UUID format, got %s", id)
	}
}
