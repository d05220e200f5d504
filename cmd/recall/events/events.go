// Package eventscmder provides the events command for tailing the live
// memory event feed of a running server.
package eventscmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/recall/pkg/sse"
)

type EventsCommander struct {
	url string
	out io.Writer
}

const eventsLongDesc string = `Tail the live memory event feed of a running Recall server.

Connects to the server's SSE endpoint and prints each event as it arrives:
ledger writes, context archives, relevance rescores, and summary creations.
Stops on interrupt or when the server closes the stream.`

const eventsShortDesc string = "Tail the live memory event feed"

func NewEventsCmd() *cobra.Command {
	cmder := &EventsCommander{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "events",
		Short: eventsShortDesc,
		Long:  eventsLongDesc,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.url, "url", "u", "http://localhost:3000/sse", "SSE endpoint of the server")

	return cmd
}

func (c *EventsCommander) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, c.url)
	}

	return c.tail(ctx, resp.Body)
}

// tail prints parsed events until the stream or the context ends. Interrupts
// surface through the request context cancelling the body read.
func (c *EventsCommander) tail(ctx context.Context, body io.Reader) error {
	reader := sse.NewReader(body)

	for {
		ev, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}
		if ev == nil {
			return nil
		}

		// Keep-alive pings carry no payload worth printing.
		if ev.Type == "ping" {
			continue
		}

		if ev.Type != "" {
			fmt.Fprintf(c.out, "%s\t%s\n", ev.Type, ev.Data)
		} else {
			fmt.Fprintln(c.out, ev.Data)
		}
	}
}
