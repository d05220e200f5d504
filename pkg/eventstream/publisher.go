package eventstream

import "context"

// Publisher publishes memory events to an event stream backend.
type Publisher interface {
	PublishMemory(ctx context.Context, event *MemoryEvent) error
	Close() error
}

// Multi fans a publish out to several publishers. The first error wins but
// every publisher still sees the event.
type Multi struct {
	publishers []Publisher
}

// NewMulti creates a publisher that forwards to all of the given publishers.
func NewMulti(publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers}
}

// PublishMemory forwards the event to every publisher.
func (m *Multi) PublishMemory(ctx context.Context, event *MemoryEvent) error {
	if event == nil {
		return ErrNilMemoryEvent
	}

	var firstErr error
	for _, p := range m.publishers {
		if err := p.PublishMemory(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every publisher.
func (m *Multi) Close() error {
	var firstErr error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
