package eventstream_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/recall/pkg/eventstream"
	"github.com/papercomputeco/recall/pkg/eventstream/nop"
)

// recordingPublisher captures events and optionally fails.
type recordingPublisher struct {
	events []*eventstream.MemoryEvent
	err    error
	closed bool
}

func (p *recordingPublisher) PublishMemory(_ context.Context, event *eventstream.MemoryEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

var _ = Describe("Multi", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("forwards an event to every publisher", func() {
		a := &recordingPublisher{}
		b := &recordingPublisher{}
		m := eventstream.NewMulti(a, b)

		evt := &eventstream.MemoryEvent{EventType: eventstream.EventTypeContextArchived}
		Expect(m.PublishMemory(ctx, evt)).To(Succeed())

		Expect(a.events).To(HaveLen(1))
		Expect(b.events).To(HaveLen(1))
	})

	It("returns the first error but still delivers to the rest", func() {
		boom := errors.New("broker down")
		a := &recordingPublisher{err: boom}
		b := &recordingPublisher{}
		m := eventstream.NewMulti(a, b)

		err := m.PublishMemory(ctx, &eventstream.MemoryEvent{})
		Expect(err).To(MatchError(boom))
		Expect(b.events).To(HaveLen(1))
	})

	It("rejects a nil event before fanning out", func() {
		a := &recordingPublisher{}
		m := eventstream.NewMulti(a)

		Expect(m.PublishMemory(ctx, nil)).To(MatchError(eventstream.ErrNilMemoryEvent))
		Expect(a.events).To(BeEmpty())
	})

	It("closes every publisher", func() {
		a := &recordingPublisher{}
		b := &recordingPublisher{}
		m := eventstream.NewMulti(a, b)

		Expect(m.Close()).To(Succeed())
		Expect(a.closed).To(BeTrue())
		Expect(b.closed).To(BeTrue())
	})
})

var _ = Describe("Nop publisher", func() {
	It("accepts events and discards them", func() {
		p := nop.NewPublisher()
		Expect(p.PublishMemory(context.Background(), &eventstream.MemoryEvent{})).To(Succeed())
		Expect(p.Close()).To(Succeed())
	})

	It("still rejects nil", func() {
		p := nop.NewPublisher()
		Expect(p.PublishMemory(context.Background(), nil)).To(MatchError(eventstream.ErrNilMemoryEvent))
	})
})
