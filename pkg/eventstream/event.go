// Package eventstream carries transport-neutral events emitted after
// successful memory writes. The in-process Broadcaster feeds the SSE push
// channel; additional Publisher backends (e.g. Kafka) can be attached for
// external consumers.
package eventstream

import (
	"time"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemorySaved is emitted after a ledger write (save or add).
	EventTypeMemorySaved = "recall.memory.saved"

	// EventTypeMemoryCleared is emitted after the ledger is wiped.
	EventTypeMemoryCleared = "recall.memory.cleared"

	// EventTypeContextArchived is emitted after a context batch is archived.
	EventTypeContextArchived = "recall.context.archived"

	// EventTypeRelevanceScored is emitted after a conversation is rescored.
	EventTypeRelevanceScored = "recall.context.scored"

	// EventTypeSummaryCreated is emitted after a summary is created and its
	// sources relinked.
	EventTypeSummaryCreated = "recall.summary.created"
)

// MemoryEvent is a transport-neutral payload describing one completed write.
type MemoryEvent struct {
	SchemaVersion  int            `json:"schema_version"`
	EventType      string         `json:"event_type"`
	EventID        string         `json:"event_id"`
	EmittedAt      time.Time      `json:"emitted_at"`
	ConversationID string         `json:"conversation_id,omitempty"`
	LLM            string         `json:"llm,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}
