package memory

import (
	"go.uber.org/zap"
)

// Service is the engine behind every memory tool. It validates arguments,
// performs the store operations for one request, and returns plain structured
// results. It holds no state of its own beyond the injected store handle, so
// concurrent use is bounded only by the store's own guarantees: there is no
// cross-call ordering, and concurrent writers to the same conversation are
// last-write-wins.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a Service over the given store.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}
