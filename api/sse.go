package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/eventstream"
)

// keepaliveInterval is how often an idle SSE connection gets a ping event so
// intermediaries don't reap it.
const keepaliveInterval = 15 * time.Second

// handleSSE serves the long-lived push channel. On connect the stream
// announces the invocation endpoint and the tool list, then forwards every
// broadcast memory event until the client goes away.
func (s *Server) handleSSE(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	sub := s.broadcast.Subscribe()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		s.streamEvents(w, sub)
	})

	return nil
}

// streamEvents writes the on-connect handshake (the invocation endpoint
// followed by the tool list) and then forwards broadcast events until the
// subscription closes or a write fails.
func (s *Server) streamEvents(w *bufio.Writer, sub *eventstream.Subscription) {
	defer s.broadcast.Unsubscribe(sub)

	if err := writeSSE(w, "endpoint", "/tools/call"); err != nil {
		return
	}
	if err := writeSSE(w, "tools", ToolsResponse{Tools: s.registry.List()}); err != nil {
		return
	}

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeSSE(w, event.EventType, event); err != nil {
				s.logger.Debug("SSE subscriber gone", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := writeSSE(w, "ping", time.Now().UTC()); err != nil {
				return
			}
		}
	}
}

// writeSSE serializes one event in wire format and flushes it. A flush error
// means the client disconnected.
func writeSSE(w *bufio.Writer, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling SSE payload: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}
	return w.Flush()
}
