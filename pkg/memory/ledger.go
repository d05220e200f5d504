package memory

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SaveMemories appends one record holding the given batch. Overwrite
// semantics belong to the caller: a transport that wants "save replaces
// everything" invokes ClearAllMemories first (the save-memories tool does
// exactly that).
func (s *Service) SaveMemories(ctx context.Context, memories []string, llm, userID string) error {
	if err := validateBatch(memories, llm); err != nil {
		return err
	}
	return s.appendRecord(ctx, memories, llm, userID)
}

// AddMemories appends one record without any preceding clear; used for
// non-destructive accumulation.
func (s *Service) AddMemories(ctx context.Context, memories []string, llm, userID string) error {
	if err := validateBatch(memories, llm); err != nil {
		return err
	}
	return s.appendRecord(ctx, memories, llm, userID)
}

// GetAllMemories returns every ledger record, newest first. An empty ledger
// yields an empty slice, not an error.
func (s *Service) GetAllMemories(ctx context.Context) ([]*MemoryRecord, error) {
	recs, err := s.store.ListMemories(ctx)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*MemoryRecord{}
	}
	return recs, nil
}

// ClearAllMemories deletes every ledger record and returns the number
// deleted. Clearing an already-empty ledger returns 0.
func (s *Service) ClearAllMemories(ctx context.Context) (int64, error) {
	n, err := s.store.ClearMemories(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("cleared memory ledger", zap.Int64("deleted", n))
	return n, nil
}

func (s *Service) appendRecord(ctx context.Context, memories []string, llm, userID string) error {
	rec := &MemoryRecord{
		Memories:  memories,
		Timestamp: time.Now().UTC(),
		LLM:       llm,
		UserID:    userID,
	}

	id, err := s.store.InsertMemory(ctx, rec)
	if err != nil {
		return err
	}

	s.logger.Debug("stored memory batch",
		zap.String("id", id),
		zap.Int("memories", len(memories)),
		zap.String("llm", llm),
	)
	return nil
}

func validateBatch(memories []string, llm string) error {
	if memories == nil {
		return ValidationError{Field: "memories", Reason: "must be an array of strings"}
	}
	if len(memories) == 0 {
		return ValidationError{Field: "memories", Reason: "must not be empty"}
	}
	if llm == "" {
		return ValidationError{Field: "llm", Reason: "must be a non-empty string"}
	}
	return nil
}
