package runtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/leeforge/plugincatalog/plugin"
	"go.uber.org/zap"
)

// EventBus delivers events asynchronously through a buffered channel with
// backpressure. Each handler runs on its own goroutine.
type EventBus struct {
	subscribers map[string][]subscriberEntry
	mu          sync.RWMutex
	ch          chan eventEnvelope
	wg          sync.WaitGroup
	closed      atomic.Bool
	logger      *zap.Logger
	nextID      atomic.Uint64
	done        chan struct{} // signals dispatcher goroutine to stop
	stopped     chan struct{} // closed when the dispatcher has drained
}

type eventEnvelope struct {
	ctx   context.Context
	event Event
}

type subscriberEntry struct {
	id      uint64
	family  plugin.Family // empty matches every family
	handler EventHandler
}

func (e subscriberEntry) accepts(event Event) bool {
	if e.family == "" || e.family == event.Family {
		return true
	}
	return event.PreviousFamily != "" && e.family == event.PreviousFamily
}

type subscription struct {
	bus   *EventBus
	topic string
	id    uint64
}

func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	subs := s.bus.subscribers[s.topic]
	for i, entry := range subs {
		if entry.id == s.id {
			s.bus.subscribers[s.topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// NewEventBus creates a new EventBus with the given buffer size.
func NewEventBus(bufferSize int, logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := &EventBus{
		subscribers: make(map[string][]subscriberEntry),
		ch:          make(chan eventEnvelope, bufferSize),
		logger:      logger,
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}

	go bus.dispatch()
	return bus
}

func (b *EventBus) dispatch() {
	defer close(b.stopped)
	for {
		select {
		case env := <-b.ch:
			b.fanOut(env)
		case <-b.done:
			for {
				select {
				case env := <-b.ch:
					b.fanOut(env)
				default:
					return
				}
			}
		}
	}
}

func (b *EventBus) fanOut(env eventEnvelope) {
	b.mu.RLock()
	subs := append([]subscriberEntry{}, b.subscribers[env.event.Topic]...)
	subs = append(subs, b.subscribers[TopicAll]...)
	b.mu.RUnlock()

	for _, entry := range subs {
		if !entry.accepts(env.event) {
			continue
		}
		b.wg.Add(1)
		go b.run(env, entry.handler)
	}
}

func (b *EventBus) run(env eventEnvelope, h EventHandler) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", env.event.Topic),
				zap.String("event_id", env.event.ID),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	if err := h(env.ctx, env.event); err != nil {
		b.logger.Warn("event handler error",
			zap.String("topic", env.event.Topic),
			zap.String("event_id", env.event.ID),
			zap.Error(err))
	}
}

// Publish sends an event, stamping its id and timestamp when unset. It
// blocks while the buffer is full until ctx expires.
func (b *EventBus) Publish(ctx context.Context, event Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	env := eventEnvelope{ctx: ctx, event: event}

	select {
	case b.ch <- env:
		return nil
	default:
		select {
		case b.ch <- env:
			return nil
		case <-ctx.Done():
			return ErrPublishTimeout
		}
	}
}

// Subscribe registers a handler for a topic, or for every topic with TopicAll.
func (b *EventBus) Subscribe(topic string, handler EventHandler) Subscription {
	return b.subscribe(topic, "", handler)
}

// SubscribeFamily is Subscribe restricted to events about one plugin family.
// Cleared events carry no family and never reach family subscribers.
func (b *EventBus) SubscribeFamily(topic string, family plugin.Family, handler EventHandler) Subscription {
	return b.subscribe(topic, family, handler)
}

// Subscribers reports how many handlers are registered across all topics.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, subs := range b.subscribers {
		n += len(subs)
	}
	return n
}

func (b *EventBus) subscribe(topic string, family plugin.Family, handler EventHandler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID.Add(1)
	b.subscribers[topic] = append(b.subscribers[topic], subscriberEntry{
		id:      id,
		family:  family,
		handler: handler,
	})

	return &subscription{bus: b, topic: topic, id: id}
}

// Close stops accepting new events, drains pending, and waits for in-flight handlers.
func (b *EventBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	close(b.done)
	<-b.stopped
	b.wg.Wait()
	return nil
}
