// Package inmemory provides a map-backed store driver. It is the default for
// local development and the backend every test suite runs against.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/recall/pkg/memory"
)

// Driver implements memory.Store using in-memory maps.
type Driver struct {
	// mu guards both document maps
	mu sync.RWMutex

	memories map[string]*memory.MemoryRecord
	context  map[string]*memory.ContextItem
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		memories: make(map[string]*memory.MemoryRecord),
		context:  make(map[string]*memory.ContextItem),
	}
}

// InsertMemory appends one memory record, assigning it a fresh id.
func (d *Driver) InsertMemory(_ context.Context, rec *memory.MemoryRecord) (string, error) {
	if rec == nil {
		return "", errors.New("cannot store nil record")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := copyRecord(rec)
	stored.ID = uuid.NewString()
	d.memories[stored.ID] = stored
	return stored.ID, nil
}

// ListMemories returns all memory records, newest first.
func (d *Driver) ListMemories(_ context.Context) ([]*memory.MemoryRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	recs := make([]*memory.MemoryRecord, 0, len(d.memories))
	for _, rec := range d.memories {
		recs = append(recs, copyRecord(rec))
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	})
	return recs, nil
}

// ClearMemories deletes every memory record.
func (d *Driver) ClearMemories(_ context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := int64(len(d.memories))
	d.memories = make(map[string]*memory.MemoryRecord)
	return n, nil
}

// InsertContextItems writes a batch of context items in one locked section.
func (d *Driver) InsertContextItems(_ context.Context, items []*memory.ContextItem) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, item := range items {
		if item == nil {
			return 0, errors.New("cannot store nil context item")
		}
	}

	for _, item := range items {
		stored := copyItem(item)
		stored.ID = uuid.NewString()
		d.context[stored.ID] = stored
	}
	return len(items), nil
}

// InsertContextItem writes a single context item and returns its assigned id.
func (d *Driver) InsertContextItem(_ context.Context, item *memory.ContextItem) (string, error) {
	if item == nil {
		return "", errors.New("cannot store nil context item")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := copyItem(item)
	stored.ID = uuid.NewString()
	d.context[stored.ID] = stored
	return stored.ID, nil
}

// FindContext returns copies of all items matching the filter, sorted and
// truncated per the filter.
func (d *Driver) FindContext(_ context.Context, filter memory.ContextFilter) ([]*memory.ContextItem, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var items []*memory.ContextItem
	for _, item := range d.context {
		if filter.Matches(item) {
			items = append(items, copyItem(item))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if filter.SortByScore {
			si, sj := scoreOf(items[i]), scoreOf(items[j])
			if si != sj {
				return si > sj
			}
		}
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

// UpdateRelevanceScore persists a new score onto one item.
func (d *Driver) UpdateRelevanceScore(_ context.Context, id string, score float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	item, ok := d.context[id]
	if !ok {
		return memory.NotFoundError{ID: id}
	}
	item.RelevanceScore = &score
	return nil
}

// LinkToSummary relinks each known item to the summary. Unknown ids are
// skipped, matching the document-store updateMany behavior.
func (d *Driver) LinkToSummary(_ context.Context, ids []string, summaryID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		item, ok := d.context[id]
		if !ok {
			continue
		}
		item.Type = memory.TypeArchived
		item.ParentContextID = summaryID
	}
	return nil
}

// CountContext returns the number of stored context items.
func (d *Driver) CountContext() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.context)
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}

// copyRecord deep-copies a memory record so stored documents never share
// slice backing arrays with caller-held values.
func copyRecord(rec *memory.MemoryRecord) *memory.MemoryRecord {
	cp := *rec
	cp.Memories = append([]string(nil), rec.Memories...)
	return &cp
}

// copyItem deep-copies a context item, including the score pointer.
func copyItem(item *memory.ContextItem) *memory.ContextItem {
	cp := *item
	cp.Memories = append([]string(nil), item.Memories...)
	cp.Tags = append([]string(nil), item.Tags...)
	if item.RelevanceScore != nil {
		score := *item.RelevanceScore
		cp.RelevanceScore = &score
	}
	return &cp
}

// scoreOf treats never-scored items as sorting below every scored item.
func scoreOf(item *memory.ContextItem) float64 {
	if item.RelevanceScore == nil {
		return -1
	}
	return *item.RelevanceScore
}
