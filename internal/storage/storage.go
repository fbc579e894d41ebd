package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the history of sink messages on local disk.

// Message is a recorded sink message.
type Message struct {
	Seq  uint64    `json:"seq"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Store persists sink messages.
type Store interface {
	Close() error
	Append(text string) error
	// Recent returns up to limit unexpired messages, oldest first. limit <= 0 returns all.
	Recent(limit int) ([]Message, error)
	Clear() error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	MessageTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultMessageTTL      = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.MessageTTL <= 0 {
		opts.MessageTTL = defaultMessageTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                  { return nil }
func (noopStore) Append(string) error           { return nil }
func (noopStore) Recent(int) ([]Message, error) { return nil, nil }
func (noopStore) Clear() error                  { return nil }
