package strategy

import (
	"context"

	"mlsmap/internal/domain/model"
)

// QueueStrategy is a swappable policy that builds a priority-ordered
// recommendation list for a reference listing. Implementations are stateless
// across calls apart from per-call resolved configuration; new strategies
// plug into the queue manager without changes to it.
type QueueStrategy interface {
	// Name identifies the strategy in logs and diagnostics.
	Name() string

	// InitializeQueue produces the ordered candidate list for the given
	// context. Lower QueueItem.Score means shown sooner. A context the
	// strategy cannot act on yields an empty list, not an error.
	InitializeQueue(ctx context.Context, qc *model.QueueContext) ([]model.QueueItem, error)
}
