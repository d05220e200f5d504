package memory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/utils"
)

// Retrieval bounds enforced on RetrieveContext arguments.
const (
	MinRetrieveLimit = 1
	MaxRetrieveLimit = 50

	// DefaultMinScore and DefaultRetrieveLimit are what transports fill in
	// when the caller omits the corresponding argument.
	DefaultMinScore      = 0.1
	DefaultRetrieveLimit = 10
)

// ArchiveContext stores each message of a conversation batch as one archived
// context item. All items in a batch share the same tags; MessageIndex
// preserves the original order. The whole batch goes down in a single insert,
// and the returned count equals len(messages). An empty batch is valid and
// writes nothing.
func (s *Service) ArchiveContext(ctx context.Context, conversationID string, messages, tags []string, llm, userID string) (int, error) {
	if conversationID == "" {
		return 0, ValidationError{Field: "conversationId", Reason: "must be a non-empty string"}
	}
	if messages == nil {
		return 0, ValidationError{Field: "contextMessages", Reason: "must be an array of strings"}
	}
	if tags == nil {
		return 0, ValidationError{Field: "tags", Reason: "must be an array of strings"}
	}
	if llm == "" {
		return 0, ValidationError{Field: "llm", Reason: "must be a non-empty string"}
	}

	if len(messages) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	items := make([]*ContextItem, len(messages))
	for i, msg := range messages {
		items[i] = &ContextItem{
			Memories:       []string{msg},
			Timestamp:      now,
			LLM:            llm,
			UserID:         userID,
			ConversationID: conversationID,
			Type:           TypeArchived,
			Tags:           tags,
			WordCount:      utils.WordCount(msg),
			MessageIndex:   i,
		}
	}

	n, err := s.store.InsertContextItems(ctx, items)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("archived context batch",
		zap.String("conversationId", conversationID),
		zap.Int("items", n),
		zap.Strings("tags", tags),
	)
	return n, nil
}

// RetrieveContext returns archived fragments of one conversation whose
// relevance score is present and at least minScore, optionally narrowed to
// fragments sharing a tag with the given set. Results come back score
// descending, timestamp descending, truncated to limit. Fragments that have
// never been scored are excluded by construction of the score filter.
func (s *Service) RetrieveContext(ctx context.Context, conversationID string, tags []string, minScore float64, limit int) ([]*ContextItem, error) {
	if conversationID == "" {
		return nil, ValidationError{Field: "conversationId", Reason: "must be a non-empty string"}
	}
	if minScore < 0 || minScore > 1 {
		return nil, ValidationError{Field: "minRelevanceScore", Reason: "must be between 0 and 1"}
	}
	if limit < MinRetrieveLimit || limit > MaxRetrieveLimit {
		return nil, ValidationError{Field: "limit", Reason: "must be between 1 and 50"}
	}

	items, err := s.store.FindContext(ctx, ContextFilter{
		ConversationID: conversationID,
		Types:          []ContextType{TypeArchived},
		Tags:           tags,
		MinScore:       &minScore,
		SortByScore:    true,
		Limit:          limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ContextItem{}
	}
	return items, nil
}

// SearchContextByTags searches across every conversation for items — archived
// or summary — sharing at least one tag with the given set.
func (s *Service) SearchContextByTags(ctx context.Context, tags []string) ([]*ContextItem, error) {
	if len(tags) == 0 {
		return nil, ValidationError{Field: "tags", Reason: "must be a non-empty array of strings"}
	}

	items, err := s.store.FindContext(ctx, ContextFilter{
		Tags:        tags,
		SortByScore: true,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ContextItem{}
	}
	return items, nil
}
