package memory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/utils"
)

// CreateSummary inserts a summary item for the conversation and relinks the
// given source fragments to point at it. Returns the new summary's id.
//
// The two store operations are sequential and NOT wrapped in a transaction:
// a failure between them leaves the summary created with its sources not yet
// relinked. This is a known, accepted gap — callers see the error and the
// partially-applied state rather than silent locking.
//
// Source items without an id cannot be located in the store and are silently
// skipped. Relinking is idempotent: linked items stay archived, only their
// parentContextId changes.
func (s *Service) CreateSummary(ctx context.Context, conversationID string, items []*ContextItem, summaryText, llm, userID string) (string, error) {
	if conversationID == "" {
		return "", ValidationError{Field: "conversationId", Reason: "must be a non-empty string"}
	}
	if items == nil {
		return "", ValidationError{Field: "contextItems", Reason: "must be an array of context items"}
	}
	if summaryText == "" {
		return "", ValidationError{Field: "summaryText", Reason: "must be a non-empty string"}
	}
	if llm == "" {
		return "", ValidationError{Field: "llm", Reason: "must be a non-empty string"}
	}

	summary := &ContextItem{
		Memories:       []string{summaryText},
		Timestamp:      time.Now().UTC(),
		LLM:            llm,
		UserID:         userID,
		ConversationID: conversationID,
		Type:           TypeSummary,
		Tags:           []string{},
		WordCount:      utils.WordCount(summaryText),
		SummaryText:    summaryText,
	}

	summaryID, err := s.store.InsertContextItem(ctx, summary)
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil || item.ID == "" {
			continue
		}
		ids = append(ids, item.ID)
	}

	if len(ids) > 0 {
		if err := s.store.LinkToSummary(ctx, ids, summaryID); err != nil {
			// The summary exists but its sources are not linked; surface the
			// error as-is so the caller sees the partial state.
			return "", err
		}
	}

	s.logger.Debug("created conversation summary",
		zap.String("conversationId", conversationID),
		zap.String("summaryId", summaryID),
		zap.Int("linked", len(ids)),
	)
	return summaryID, nil
}

// GetConversationSummaries returns every summary item of a conversation,
// newest first.
func (s *Service) GetConversationSummaries(ctx context.Context, conversationID string) ([]*ContextItem, error) {
	if conversationID == "" {
		return nil, ValidationError{Field: "conversationId", Reason: "must be a non-empty string"}
	}

	items, err := s.store.FindContext(ctx, ContextFilter{
		ConversationID: conversationID,
		Types:          []ContextType{TypeSummary},
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ContextItem{}
	}
	return items, nil
}
