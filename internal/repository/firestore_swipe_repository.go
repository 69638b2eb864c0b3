package repository

import (
	"context"
	"fmt"
	"log"

	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
	"mlsmap/internal/infrastructure/firestore"
)

const swipeEventsCollection = "swipe_events"

// FirestoreSwipeRepository journals swipe decisions to Firestore, one
// document per event keyed by session and listing.
type FirestoreSwipeRepository struct {
	client *firestore.FirestoreClient
}

func NewFirestoreSwipeRepository(client *firestore.FirestoreClient) repository.SwipeEventsRepository {
	return &FirestoreSwipeRepository{client: client}
}

// RecordSwipes writes each event. A repeated swipe on the same listing within
// a session overwrites its document, keeping the journal idempotent.
func (r *FirestoreSwipeRepository) RecordSwipes(ctx context.Context, events []model.SwipeEvent) error {
	collection := r.client.GetClient().Collection(swipeEventsCollection)
	for _, e := range events {
		docID := fmt.Sprintf("%s_%s", e.SessionID, e.ListingKey)
		if _, err := collection.Doc(docID).Set(ctx, e); err != nil {
			return fmt.Errorf("writing swipe event %s: %w", docID, err)
		}
	}
	log.Printf("✅ journaled %d swipe event(s)", len(events))
	return nil
}
