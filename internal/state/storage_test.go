// internal/state/storage_test.go
package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/user/gyaansetu/internal/types"
)

func TestFileStorage(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStorage(dir)

	// Absent key
	_, ok, err := store.Get("learningHistory")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected absent key")
	}

	// Set then get
	if err := store.Set("learningHistory", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	data, ok, err := store.Get("learningHistory")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(data) != `[]` {
		t.Errorf("expected [], got %q (ok=%v)", data, ok)
	}

	// No temp file left behind
	if _, err := os.Stat(filepath.Join(dir, "storage", "learningHistory.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file should not exist after successful set")
	}

	// Remove twice
	if err := store.Remove("learningHistory"); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove("learningHistory"); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}
	if _, ok, _ := store.Get("learningHistory"); ok {
		t.Error("expected key removed")
	}
}

func TestFileStorageRejectsTraversal(t *testing.T) {
	store := NewFileStorage(t.TempDir())
	for _, key := range []string{"../escape", "a/b", ""} {
		if err := store.Set(key, []byte("x")); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestMemoryStorageCopies(t *testing.T) {
	var store types.Storage = NewMemoryStorage()
	value := []byte("abc")
	if err := store.Set("k", value); err != nil {
		t.Fatal(err)
	}
	value[0] = 'z'

	got, ok, err := store.Get("k")
	if err != nil || !ok {
		t.Fatalf("expected value, got ok=%v err=%v", ok, err)
	}
	if string(got) != "abc" {
		t.Errorf("expected stored copy, got %q", got)
	}
}
