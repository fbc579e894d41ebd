package messages

import (
	"context"
	"sync"
	"time"

	"github.com/samvad-hq/hero-records/internal/logger"
	"github.com/samvad-hq/hero-records/internal/storage"
	"github.com/samvad-hq/hero-records/pkg/publishers"
)

const defaultPublishTimeout = 5 * time.Second

// EventPublisher publishes sink messages downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Options configures a Service. Store and Publisher are optional.
type Options struct {
	Source         string
	Env            string
	Store          storage.Store
	Publisher      EventPublisher
	PublishTimeout time.Duration
}

// Service is the message sink. It keeps messages in memory and mirrors each
// one to the history store and the publishers. Mirroring failures are logged
// and never reach the caller of Add.
type Service struct {
	mu       sync.Mutex
	messages []string

	source         string
	env            string
	store          storage.Store
	publisher      EventPublisher
	publishTimeout time.Duration
	log            logger.Logger
}

// NewService builds a message sink.
func NewService(opts Options, log logger.Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Service{
		source:         opts.Source,
		env:            opts.Env,
		store:          opts.Store,
		publisher:      opts.Publisher,
		publishTimeout: opts.PublishTimeout,
		log:            log,
	}
}

// Add records message.
func (s *Service) Add(message string) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()

	s.log.DebugObj("message recorded", "message", message)

	if s.store != nil {
		if err := s.store.Append(message); err != nil {
			s.log.WarnObj("message history append failed", "message_store_error", map[string]any{
				"message": message,
				"error":   err.Error(),
			})
		}
	}

	// Publishing is synchronous, bounded by publishTimeout; failures only log.
	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.publishTimeout)
		defer cancel()
		if _, err := s.publisher.Publish(ctx, publishers.NewEvent(s.source, s.env, message)); err != nil {
			s.log.WarnObj("message publish failed", "message_publish_error", map[string]any{
				"message": message,
				"error":   err.Error(),
			})
		}
	}
}

// Messages returns a copy of the messages recorded since the last Clear.
func (s *Service) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear drops the in-memory messages and the stored history.
func (s *Service) Clear() error {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.Clear()
}

// History returns up to limit stored messages, oldest first.
func (s *Service) History(limit int) ([]storage.Message, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(limit)
}
