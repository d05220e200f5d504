package memory

import (
	"context"
)

// Store is the document-store contract the engine runs against. Backends live
// under pkg/store; the engine never sees driver-level concerns like
// connection pooling or bson encoding.
//
// Every method is a single potentially-blocking unit of work. No method
// wraps multiple writes in a transaction, and callers must not assume
// atomicity across calls (see Service.CreateSummary).
type Store interface {
	// InsertMemory appends one memory record and returns its assigned id.
	InsertMemory(ctx context.Context, rec *MemoryRecord) (string, error)

	// ListMemories returns all memory records, newest first.
	ListMemories(ctx context.Context) ([]*MemoryRecord, error)

	// ClearMemories deletes every memory record and returns the number deleted.
	ClearMemories(ctx context.Context) (int64, error)

	// InsertContextItems writes a batch of context items in one insert and
	// returns the number written.
	InsertContextItems(ctx context.Context, items []*ContextItem) (int, error)

	// InsertContextItem writes a single context item and returns its assigned id.
	InsertContextItem(ctx context.Context, item *ContextItem) (string, error)

	// FindContext returns context items matching the filter. Results are
	// ordered by relevance score descending when the filter asks for it,
	// with timestamp descending as the final tiebreak.
	FindContext(ctx context.Context, filter ContextFilter) ([]*ContextItem, error)

	// UpdateRelevanceScore persists a new relevance score onto one item.
	UpdateRelevanceScore(ctx context.Context, id string, score float64) error

	// LinkToSummary marks each of the given items as archived and points its
	// parentContextId at the summary. Unknown ids are skipped.
	LinkToSummary(ctx context.Context, ids []string, summaryID string) error

	// Close releases backend resources.
	Close() error
}

// ContextFilter selects context items in FindContext.
//
// Zero values mean "no constraint": an empty ConversationID matches every
// conversation, empty Types matches both archived and summary items, and a
// nil MinScore skips score filtering entirely. A non-nil MinScore requires
// the score to be present AND >= the threshold, so never-scored items are
// excluded — this mirrors the upstream behavior and is intentional.
type ContextFilter struct {
	ConversationID string
	Types          []ContextType
	Tags           []string // non-empty: at least one tag must match
	MinScore       *float64
	SortByScore    bool
	Limit          int // <= 0 means unlimited
}

// Matches reports whether a single item satisfies the filter's predicate
// portion (sorting and limiting are the store's concern). Drivers that filter
// in process use this directly; the mongo driver compiles the same predicate
// into a query document.
func (f ContextFilter) Matches(item *ContextItem) bool {
	if f.ConversationID != "" && item.ConversationID != f.ConversationID {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if item.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Tags) > 0 && !item.IntersectsTags(f.Tags) {
		return false
	}
	if f.MinScore != nil {
		if item.RelevanceScore == nil || *item.RelevanceScore < *f.MinScore {
			return false
		}
	}
	return true
}

// NotFoundError is returned by stores when a document does not exist.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "document not found"
	}
	return "document not found: " + e.ID
}
