package eventstream

import (
	"context"
	"sync"
)

// subscriberBuffer bounds each subscription channel. A subscriber that falls
// this far behind starts losing events rather than blocking publishers.
const subscriberBuffer = 16

// Subscription is one listener on a Broadcaster. Events arrive on C until
// Unsubscribe closes it.
type Subscription struct {
	C chan *MemoryEvent
}

// Broadcaster fans memory events out to in-process subscribers. It backs the
// SSE push channel and also satisfies Publisher so it can sit in a Multi
// chain next to external backends.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{
		C: make(chan *MemoryEvent, subscriberBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.C)
}

// PublishMemory delivers the event to every subscriber. Delivery is
// non-blocking; a full subscriber buffer drops the event for that subscriber.
func (b *Broadcaster) PublishMemory(_ context.Context, event *MemoryEvent) error {
	if event == nil {
		return ErrNilMemoryEvent
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.C <- event:
		default:
		}
	}
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close unsubscribes every listener.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.C)
	}
	return nil
}
