package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"mlsmap/internal/domain/helper"
	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
)

const neighborhoodMaxQueueSize = 200

// queryMetadata is the JSON payload the chat layer attaches when it has
// already identified a neighborhood.
type queryMetadata struct {
	NeighborhoodType string                    `json:"neighborhoodType"`
	NeighborhoodID   string                    `json:"neighborhoodId"`
	Filters          model.NeighborhoodFilters `json:"filters"`
}

// NeighborhoodStrategy queues every active listing of a subdivision or city,
// most expensive first. The neighborhood comes from structured query metadata
// when present, otherwise it is inferred from the reference listing.
type NeighborhoodStrategy struct {
	listingsRepo repository.ListingsRepository

	// resolved per call
	neighborhoodType string
	neighborhoodID   string
	filters          model.NeighborhoodFilters
}

func NewNeighborhoodStrategy(repo repository.ListingsRepository) QueueStrategy {
	return &NeighborhoodStrategy{listingsRepo: repo}
}

func (s *NeighborhoodStrategy) Name() string { return "Neighborhood" }

// InitializeQueue resolves the neighborhood, fetches its active listings and
// orders them by price descending. Score carries the raw price; the ordering
// lives in the comparator, so the price is never negated. When no
// neighborhood can be resolved the queue is empty, not an error, so the UI
// can show an empty state.
func (s *NeighborhoodStrategy) InitializeQueue(ctx context.Context, qc *model.QueueContext) ([]model.QueueItem, error) {
	ref := qc.ReferenceListing
	if !s.resolveNeighborhood(qc) {
		log.Printf("⚠️ Neighborhood: no subdivision or city to resolve, returning empty queue")
		return []model.QueueItem{}, nil
	}

	log.Printf("💬 Neighborhood: %s %q", s.neighborhoodType, s.neighborhoodID)

	listings, total, err := s.listingsRepo.FindByNeighborhood(
		ctx, s.neighborhoodType, s.neighborhoodID, s.filters, neighborhoodMaxQueueSize)
	if err != nil {
		return nil, fmt.Errorf("fetching %s listings for %q: %w", s.neighborhoodType, s.neighborhoodID, err)
	}

	items := make([]model.QueueItem, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		if ref != nil && l.ListingKey == ref.ListingKey {
			continue
		}
		if l.IsCoOwnership() {
			continue
		}
		items = append(items, model.NewQueueItem(l, l.ListPrice))
	}

	// Highest price first; descending on score by design here.
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })

	log.Printf("✅ Neighborhood: %d queued (%d available)", len(items), total)
	return items, nil
}

// resolveNeighborhood picks the neighborhood for this call: query metadata
// first, then the reference listing's subdivision, then its city.
func (s *NeighborhoodStrategy) resolveNeighborhood(qc *model.QueueContext) bool {
	s.neighborhoodType = ""
	s.neighborhoodID = ""
	s.filters = model.NeighborhoodFilters{}

	if qc.Query != "" {
		var meta queryMetadata
		if err := json.Unmarshal([]byte(qc.Query), &meta); err == nil &&
			meta.NeighborhoodType != "" && meta.NeighborhoodID != "" {
			s.neighborhoodType = meta.NeighborhoodType
			s.neighborhoodID = meta.NeighborhoodID
			s.filters = meta.Filters
			return true
		}
		// Not JSON metadata; fall through to the reference listing.
	}

	ref := qc.ReferenceListing
	if ref == nil {
		return false
	}
	if ref.SubdivisionName != "" {
		s.neighborhoodType = model.NeighborhoodSubdivision
		s.neighborhoodID = helper.Slugify(ref.SubdivisionName)
		return true
	}
	if ref.City != "" {
		s.neighborhoodType = model.NeighborhoodCity
		s.neighborhoodID = helper.Slugify(ref.City)
		return true
	}
	return false
}
