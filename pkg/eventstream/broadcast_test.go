package eventstream_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/recall/pkg/eventstream"
)

var _ = Describe("Broadcaster", func() {
	var (
		ctx context.Context
		b   *eventstream.Broadcaster
	)

	BeforeEach(func() {
		ctx = context.Background()
		b = eventstream.NewBroadcaster()
	})

	event := func(eventType string) *eventstream.MemoryEvent {
		return &eventstream.MemoryEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventType,
			EventID:       "evt-1",
		}
	}

	It("delivers an event to every subscriber", func() {
		s1 := b.Subscribe()
		s2 := b.Subscribe()
		Expect(b.SubscriberCount()).To(Equal(2))

		Expect(b.PublishMemory(ctx, event(eventstream.EventTypeMemorySaved))).To(Succeed())

		Expect(<-s1.C).To(HaveField("EventType", eventstream.EventTypeMemorySaved))
		Expect(<-s2.C).To(HaveField("EventType", eventstream.EventTypeMemorySaved))
	})

	It("rejects a nil event", func() {
		Expect(b.PublishMemory(ctx, nil)).To(MatchError(eventstream.ErrNilMemoryEvent))
	})

	It("drops events for a subscriber whose buffer is full", func() {
		slow := b.Subscribe()

		for i := 0; i < 32; i++ {
			Expect(b.PublishMemory(ctx, event(eventstream.EventTypeMemorySaved))).To(Succeed())
		}

		received := 0
	drain:
		for {
			select {
			case <-slow.C:
				received++
			default:
				break drain
			}
		}
		Expect(received).To(BeNumerically("<", 32))
		Expect(received).To(BeNumerically(">", 0))
	})

	It("stops delivery after Unsubscribe and closes the channel", func() {
		sub := b.Subscribe()
		b.Unsubscribe(sub)
		Expect(b.SubscriberCount()).To(BeZero())

		_, open := <-sub.C
		Expect(open).To(BeFalse())

		// Unsubscribing twice is safe.
		b.Unsubscribe(sub)
	})

	It("publishes fine with no subscribers", func() {
		Expect(b.PublishMemory(ctx, event(eventstream.EventTypeMemoryCleared))).To(Succeed())
	})

	It("closes all subscriptions on Close", func() {
		s1 := b.Subscribe()
		s2 := b.Subscribe()

		Expect(b.Close()).To(Succeed())
		Expect(b.SubscriberCount()).To(BeZero())

		_, open := <-s1.C
		Expect(open).To(BeFalse())
		_, open = <-s2.C
		Expect(open).To(BeFalse())
	})
})
