package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	messageBucket = "messages"
	// value layout: expiry unix seconds | recorded-at unix nanos | text
	headerBytes = 16
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	messageTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(messageBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		messageTTL:      opts.MessageTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Append records a message with the configured TTL.
func (b *boltStore) Append(text string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(messageBucket))
		if bucket == nil {
			return fmt.Errorf("message bucket missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		return bucket.Put(encodeKey(seq), encodeRecord(now.Add(b.messageTTL), now, text))
	})
}

// Recent returns up to limit unexpired messages, oldest first.
func (b *boltStore) Recent(limit int) ([]Message, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	var out []Message
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(messageBucket))
		if bucket == nil {
			return fmt.Errorf("message bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			expiry, at, text, ok := decodeRecord(v)
			if !ok || !expiry.After(now) {
				continue
			}
			out = append(out, Message{Seq: binary.BigEndian.Uint64(k), Text: text, At: at})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear drops every stored message.
func (b *boltStore) Clear() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(messageBucket)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket([]byte(messageBucket))
		return err
	})
}

// maybeCleanupExpired removes expired messages on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(messageBucket))
		if bucket == nil {
			return fmt.Errorf("message bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; {
			expiry, _, _, ok := decodeRecord(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
				k, v = cursor.Seek(k)
				continue
			}
			k, v = cursor.Next()
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func encodeRecord(expiry, at time.Time, text string) []byte {
	buf := make([]byte, headerBytes+len(text))
	binary.BigEndian.PutUint64(buf[0:8], uint64(expiry.Unix()))
	binary.BigEndian.PutUint64(buf[8:16], uint64(at.UnixNano()))
	copy(buf[headerBytes:], text)
	return buf
}

// decodeRecord decodes the expiry, timestamp and text from the stored value.
func decodeRecord(value []byte) (time.Time, time.Time, string, bool) {
	if len(value) < headerBytes {
		return time.Time{}, time.Time{}, "", false
	}
	unix := int64(binary.BigEndian.Uint64(value[0:8]))
	if unix <= 0 {
		return time.Time{}, time.Time{}, "", false
	}
	at := time.Unix(0, int64(binary.BigEndian.Uint64(value[8:16])))
	return time.Unix(unix, 0), at, string(value[headerBytes:]), true
}
