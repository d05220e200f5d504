package memory

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ScoreRelevance recomputes the relevance score of every archived fragment in
// a conversation against the given current-context string and persists each
// score as it is computed. Scores are written one update at a time rather
// than batched: if scoring is interrupted partway, the items already
// processed keep their fresh scores. Returns the number of items processed,
// 0 when the conversation has no archived fragments.
func (s *Service) ScoreRelevance(ctx context.Context, conversationID, currentContext, llm string) (int, error) {
	if conversationID == "" {
		return 0, ValidationError{Field: "conversationId", Reason: "must be a non-empty string"}
	}
	if llm == "" {
		return 0, ValidationError{Field: "llm", Reason: "must be a non-empty string"}
	}

	items, err := s.store.FindContext(ctx, ContextFilter{
		ConversationID: conversationID,
		Types:          []ContextType{TypeArchived},
	})
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	currentWords := tokenSet(currentContext)

	scored := 0
	for _, item := range items {
		itemWords := tokenSet(strings.Join(item.Memories, " "))
		score := jaccard(currentWords, itemWords)

		if err := s.store.UpdateRelevanceScore(ctx, item.ID, score); err != nil {
			return scored, err
		}
		scored++
	}

	s.logger.Debug("scored conversation context",
		zap.String("conversationId", conversationID),
		zap.Int("items", scored),
	)
	return scored, nil
}

// tokenSet lower-cases the text and splits it on whitespace into a set of
// unique tokens.
func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// jaccard computes |a ∩ b| / |a ∪ b|. When both sets are empty the union is
// empty and plain division would be undefined; that case is pinned to 0 so an
// empty context scored against an empty fragment never yields NaN.
func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
