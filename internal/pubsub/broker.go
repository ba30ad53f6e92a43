// Package pubsub fans published events out to live subscribers.
//
// There is no backlog: a subscriber sees only events published after it
// registered. Publishes are serialized, so every subscriber of a topic
// observes events in the same order.
package pubsub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topic names a channel of events.
type Topic string

// TopicBookAdded carries every newly created book.
const TopicBookAdded Topic = "BOOK_ADDED"

// DefaultBufferSize is the per-subscriber queue length.
const DefaultBufferSize = 64

// ErrClosed is returned by Subscribe after Shutdown.
var ErrClosed = errors.New("pubsub: broker closed")

// Event is a single published message.
type Event struct {
	PublishedAt time.Time
	Payload     any
	Topic       Topic
}

// Subscription is one listener registered on a topic.
// Events is closed once the subscription ends.
type Subscription struct {
	SubscribedAt time.Time
	events       chan Event
	done         chan struct{}
	ID           string
	Topic        Topic
}

// Events returns the channel the subscription receives on.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Broker manages subscriptions and fans out published events.
type Broker struct {
	topics     map[Topic]map[string]*Subscription
	logger     *slog.Logger
	bufferSize int
	mu         sync.RWMutex

	// publishMu serializes Publish so ordering is identical for all listeners.
	publishMu sync.Mutex

	closed bool
}

// NewBroker creates a broker. A bufferSize <= 0 uses DefaultBufferSize.
func NewBroker(logger *slog.Logger, bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{
		topics:     make(map[Topic]map[string]*Subscription),
		logger:     logger,
		bufferSize: bufferSize,
	}
}

// Subscribe registers a listener on topic. The subscription ends when ctx is
// cancelled, when Unsubscribe is called, or when the broker shuts down.
func (b *Broker) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	sub := &Subscription{
		ID:           uuid.NewString(),
		Topic:        topic,
		SubscribedAt: time.Now(),
		events:       make(chan Event, b.bufferSize),
		done:         make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[string]*Subscription)
		b.topics[topic] = subs
	}
	subs[sub.ID] = sub
	total := len(subs)
	b.mu.Unlock()

	b.logger.Info("subscriber registered",
		slog.String("subscription_id", sub.ID),
		slog.String("topic", string(topic)),
		slog.Int("total_subscribers", total))

	go func() {
		select {
		case <-ctx.Done():
			b.Unsubscribe(sub)
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Unsubscribe removes sub and closes its channel. Calling it more than once is safe.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	subs := b.topics[sub.Topic]
	if _, ok := subs[sub.ID]; !ok {
		b.mu.Unlock()
		return
	}
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(b.topics, sub.Topic)
	}
	total := len(subs)
	close(sub.done)
	close(sub.events)
	b.mu.Unlock()

	b.logger.Info("subscriber removed",
		slog.String("subscription_id", sub.ID),
		slog.String("topic", string(sub.Topic)),
		slog.Duration("duration", time.Since(sub.SubscribedAt)),
		slog.Int("total_subscribers", total))
}

// Publish delivers payload to every current subscriber of topic.
// It never blocks on a slow subscriber: when a subscriber's buffer is full
// the event is dropped for that subscriber only.
func (b *Broker) Publish(topic Topic, payload any) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	event := Event{
		Topic:       topic,
		Payload:     payload,
		PublishedAt: time.Now(),
	}

	var delivered, dropped int

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.topics[topic] {
		select {
		case sub.events <- event:
			delivered++
		default:
			dropped++
			b.logger.Warn("dropped event for slow subscriber",
				slog.String("subscription_id", sub.ID),
				slog.String("topic", string(topic)))
		}
	}

	b.logger.Debug("event published",
		slog.String("topic", string(topic)),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped)))
}

// SubscriberCount returns the number of live subscribers on topic.
func (b *Broker) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Shutdown closes every subscription and rejects new ones.
func (b *Broker) Shutdown(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.topics {
		for _, sub := range subs {
			close(sub.done)
			close(sub.events)
		}
	}
	b.topics = make(map[Topic]map[string]*Subscription)

	b.logger.Info("pubsub broker shut down")
	return nil
}
