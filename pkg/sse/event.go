// Package sse provides a minimal SSE (Server-Sent Events) stream parser used
// by clients of the recall event feed. It turns the raw byte stream served at
// /sse into parsed events.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities; the API server writes its own stream.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event represents a single parsed SSE event, delimited by a blank line
// in the byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}
