package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestBolt(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "messages.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreAppendsAndListsRecent(t *testing.T) {
	store := openTestBolt(t, Options{})

	for _, text := range []string{"heroes fetched", "hero fetched id= 12", "deleted hero id= 12"} {
		if err := store.Append(text); err != nil {
			t.Fatalf("Append(%q): %v", text, err)
		}
	}

	all, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 || all[0].Text != "heroes fetched" || all[2].Text != "deleted hero id= 12" {
		t.Fatalf("unexpected messages %#v", all)
	}
	if all[0].Seq >= all[1].Seq {
		t.Fatalf("expected increasing sequence, got %d then %d", all[0].Seq, all[1].Seq)
	}

	last, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent(2): %v", err)
	}
	if len(last) != 2 || last[0].Text != "hero fetched id= 12" {
		t.Fatalf("expected the two newest messages oldest first, got %#v", last)
	}
}

func TestBoltStoreExpiresMessages(t *testing.T) {
	store := openTestBolt(t, Options{MessageTTL: time.Minute, CleanupInterval: time.Minute})
	now := time.Now()
	store.now = func() time.Time { return now }

	if err := store.Append("old"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := store.Append("new"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	msgs, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "new" {
		t.Fatalf("expected only the unexpired message, got %#v", msgs)
	}

	var stored int
	_ = store.db.View(func(tx *bolt.Tx) error {
		stored = tx.Bucket([]byte(messageBucket)).Stats().KeyN
		return nil
	})
	if stored != 1 {
		t.Fatalf("expected cleanup to remove the expired entry, %d left", stored)
	}
}

func TestBoltStoreClear(t *testing.T) {
	store := openTestBolt(t, Options{})
	if err := store.Append("x"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	msgs, err := store.Recent(0)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty store, got %#v err=%v", msgs, err)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Append("x"); err != nil {
		t.Fatalf("noop store Append: %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}
