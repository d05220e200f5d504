// Package memory implements the context-relevance archive engine: a ledger of
// raw memory batches, an archive of tagged conversation fragments, a lexical
// relevance scorer, and summary promotion over a pluggable document store.
package memory

import (
	"time"
)

// ContextType distinguishes raw archived fragments from derived summaries.
// The upstream schema also names an "active" type, but no operation in this
// system ever produces it, so it is deliberately not defined here.
type ContextType string

const (
	// TypeArchived marks a raw conversation fragment captured by ArchiveContext.
	TypeArchived ContextType = "archived"

	// TypeSummary marks a derived summary item created by CreateSummary.
	TypeSummary ContextType = "summary"
)

// MemoryRecord is one batch of raw memory strings written to the ledger.
// Memories and Timestamp are immutable once the record is created; the ledger
// only ever grows (AddMemories) or is wiped in bulk (ClearAllMemories).
type MemoryRecord struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Memories  []string  `json:"memories" bson:"memories"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	LLM       string    `json:"llm" bson:"llm"`
	UserID    string    `json:"userId,omitempty" bson:"userId,omitempty"`
}

// ContextItem is one unit of conversational context: either an archived
// fragment (Type == TypeArchived) or a derived summary (Type == TypeSummary).
//
// For an archived fragment Memories holds exactly the original message;
// MessageIndex is its position within the archiving batch. RelevanceScore is
// nil until the item has been scored at least once. ParentContextID is set
// when the fragment is folded into a summary; the fragment itself is never
// deleted, only linked.
//
// For a summary, Memories holds the summary text (a single element) and
// SummaryText carries it explicitly; MessageIndex, RelevanceScore, and
// ParentContextID are never populated.
type ContextItem struct {
	ID             string      `json:"id" bson:"_id,omitempty"`
	Memories       []string    `json:"memories" bson:"memories"`
	Timestamp      time.Time   `json:"timestamp" bson:"timestamp"`
	LLM            string      `json:"llm" bson:"llm"`
	UserID         string      `json:"userId,omitempty" bson:"userId,omitempty"`
	ConversationID string      `json:"conversationId" bson:"conversationId"`
	Type           ContextType `json:"contextType" bson:"contextType"`
	Tags           []string    `json:"tags" bson:"tags"`
	WordCount      int         `json:"wordCount" bson:"wordCount"`

	// Archived-only fields.
	MessageIndex    int      `json:"messageIndex,omitempty" bson:"messageIndex,omitempty"`
	RelevanceScore  *float64 `json:"relevanceScore,omitempty" bson:"relevanceScore,omitempty"`
	ParentContextID string   `json:"parentContextId,omitempty" bson:"parentContextId,omitempty"`

	// Summary-only field.
	SummaryText string `json:"summaryText,omitempty" bson:"summaryText,omitempty"`
}

// Scored reports whether the item has ever been scored.
func (c *ContextItem) Scored() bool {
	return c.RelevanceScore != nil
}

// HasTag reports whether the item carries the given tag.
func (c *ContextItem) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IntersectsTags reports whether the item shares at least one tag with the
// given set. An empty query set never intersects.
func (c *ContextItem) IntersectsTags(tags []string) bool {
	for _, t := range tags {
		if c.HasTag(t) {
			return true
		}
	}
	return false
}
