package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/eventstream"
	"github.com/papercomputeco/recall/pkg/memory"
	"github.com/papercomputeco/recall/pkg/sse"
	"github.com/papercomputeco/recall/pkg/store/inmemory"
)

var _ = Describe("streamEvents", func() {
	var (
		server    *Server
		broadcast *eventstream.Broadcaster
	)

	BeforeEach(func() {
		broadcast = eventstream.NewBroadcaster()
		service := memory.NewService(inmemory.NewDriver(), zap.NewNop())

		var err error
		server, err = NewServer(Config{ListenAddr: ":0"}, service, broadcast,
			eventstream.NewMulti(broadcast), zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	// stream runs streamEvents over a closed subscription and returns the
	// parsed frames. Closing the subscription first makes the loop drain any
	// buffered events and return.
	stream := func(publish func()) []*sse.Event {
		sub := broadcast.Subscribe()
		publish()
		broadcast.Unsubscribe(sub)

		var buf bytes.Buffer
		server.streamEvents(bufio.NewWriter(&buf), sub)

		var events []*sse.Event
		reader := sse.NewReader(&buf)
		for {
			ev, err := reader.Next()
			Expect(err).NotTo(HaveOccurred())
			if ev == nil {
				return events
			}
			events = append(events, ev)
		}
	}

	It("announces the endpoint and the tool list on connect", func() {
		events := stream(func() {})
		Expect(events).To(HaveLen(2))

		Expect(events[0].Type).To(Equal("endpoint"))
		Expect(events[0].Data).To(Equal(`"/tools/call"`))

		Expect(events[1].Type).To(Equal("tools"))
		var payload ToolsResponse
		Expect(json.Unmarshal([]byte(events[1].Data), &payload)).To(Succeed())
		Expect(payload.Tools).To(HaveLen(10))
		Expect(payload.Tools[0].Name).To(Equal(ToolSaveMemories))
	})

	It("forwards broadcast memory events after the handshake", func() {
		events := stream(func() {
			err := broadcast.PublishMemory(context.Background(), &eventstream.MemoryEvent{
				SchemaVersion:  eventstream.SchemaVersionV1,
				EventType:      eventstream.EventTypeMemorySaved,
				ConversationID: "conv-1",
			})
			Expect(err).NotTo(HaveOccurred())
		})
		Expect(events).To(HaveLen(3))

		Expect(events[2].Type).To(Equal(eventstream.EventTypeMemorySaved))
		var forwarded eventstream.MemoryEvent
		Expect(json.Unmarshal([]byte(events[2].Data), &forwarded)).To(Succeed())
		Expect(forwarded.ConversationID).To(Equal("conv-1"))
	})

	It("tears down the subscription when it returns", func() {
		sub := broadcast.Subscribe()
		broadcast.Unsubscribe(sub)

		var buf bytes.Buffer
		server.streamEvents(bufio.NewWriter(&buf), sub)
		Expect(broadcast.SubscriberCount()).To(BeZero())
	})
})

var _ = Describe("writeSSE", func() {
	It("frames the event name and JSON payload and flushes", func() {
		var buf bytes.Buffer
		w := bufio.NewWriter(&buf)

		Expect(writeSSE(w, "ping", map[string]string{"at": "now"})).To(Succeed())
		Expect(buf.String()).To(Equal("event: ping\ndata: {\"at\":\"now\"}\n\n"))
	})

	It("rejects payloads that cannot be serialized", func() {
		var buf bytes.Buffer
		w := bufio.NewWriter(&buf)

		Expect(writeSSE(w, "bad", func() {})).NotTo(Succeed())
		Expect(buf.Len()).To(BeZero())
	})
})
