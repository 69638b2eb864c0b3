package strategy

import (
	"context"
	"log"

	"mlsmap/internal/domain/model"
)

// SemanticStrategy is the slot for free-text and AI-interpreted intent
// queries. It currently returns an empty queue; the queue manager stays
// agnostic to which strategy is active, so a real implementation drops in
// behind the same interface.
type SemanticStrategy struct{}

func NewSemanticStrategy() QueueStrategy {
	return &SemanticStrategy{}
}

func (s *SemanticStrategy) Name() string { return "Semantic" }

func (s *SemanticStrategy) InitializeQueue(ctx context.Context, qc *model.QueueContext) ([]model.QueueItem, error) {
	if qc.Query != "" {
		log.Printf("💭 Semantic: query %q not yet supported, returning empty queue", qc.Query)
	}
	return []model.QueueItem{}, nil
}
