package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBoltStoreMarksAndExpiresItems(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		ItemTTL:         1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	storeRaw, err := openBolt(filepath.Join(dir, "seen.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	seen, err := store.SeenItem("id1")
	if err != nil || seen {
		t.Fatalf("expected unseen item, seen=%v err=%v", seen, err)
	}

	if err := store.MarkItem("id1"); err != nil {
		t.Fatalf("MarkItem: %v", err)
	}

	seen, err = store.SeenItem("id1")
	if err != nil || !seen {
		t.Fatalf("expected item marked as seen, got seen=%v err=%v", seen, err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	seen, err = store.SeenItem("id1")
	if err != nil {
		t.Fatalf("SeenItem after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire and be removed")
	}
	if n, err := store.count(); err != nil || n != 0 {
		t.Fatalf("expected empty bucket after sweep, n=%d err=%v", n, err)
	}
}

func TestBoltStoreRemovesFileOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "seen.db")
	store, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.MarkItem("x"); err != nil {
		t.Fatalf("MarkItem: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected bbolt file removed, stat err=%v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestBoltStoreKeepFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.db")
	store, err := NewStore("bbolt", path, Options{KeepFile: true})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected bbolt file kept: %v", err)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkItem("x"); err != nil {
		t.Fatalf("noop store MarkItem: %v", err)
	}
	if seen, _ := store.SeenItem("x"); seen {
		t.Fatalf("noop store should never report seen")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}
