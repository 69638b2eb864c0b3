package strategy

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"mlsmap/internal/domain/helper"
	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
)

const (
	mapSearchRadiusMiles = 5
	mapMaxQueueSize      = 100
)

// Tier base offsets. Within a tier the great-circle distance in miles breaks
// ties, so scores stay inside [offset, offset+radius).
const (
	tierExactMatch           = 0   // same subdivision + subtype + city + zip
	tierSubdivisionSubType   = 50  // same subdivision + subtype + city
	tierSubdivisionZip       = 100 // same subdivision + city + zip
	tierSubdivision          = 150 // same subdivision + city
	tierNearbySameSubTypeZip = 200 // same city, <=2mi, same subtype + zip
	tierModerateSameSubType  = 300 // same city, <=5mi, same subtype + zip
	tierSameCity             = 400 // same city, <=5mi
	tierFallback             = 1000
)

// priceBracketBounds are the upper bounds of the first nine price brackets;
// anything at or above the last bound is bracket nine.
var priceBracketBounds = []float64{
	300_000, 500_000, 700_000, 1_000_000, 1_500_000,
	2_000_000, 3_000_000, 5_000_000, 10_000_000,
}

// MapProximityStrategy ranks candidates around a map-selected listing using
// seven similarity tiers, gated by price-bracket compatibility.
type MapProximityStrategy struct {
	listingsRepo repository.ListingsRepository
}

func NewMapProximityStrategy(repo repository.ListingsRepository) QueueStrategy {
	return &MapProximityStrategy{listingsRepo: repo}
}

func (s *MapProximityStrategy) Name() string { return "MapProximity" }

// InitializeQueue fetches candidates within the search radius and returns
// them scored ascending. Candidates outside the reference's price bracket
// (±1), the reference itself, and co-ownership products are excluded.
func (s *MapProximityStrategy) InitializeQueue(ctx context.Context, qc *model.QueueContext) ([]model.QueueItem, error) {
	ref := qc.ReferenceListing
	if ref == nil {
		return []model.QueueItem{}, nil
	}

	log.Printf("📍 MapProximity: reference %s (%s / %s / %s %s)",
		ref.ListingKey, ref.SubdivisionName, ref.PropertySubType, ref.City, ref.PostalCode)

	propertyType := ref.PropertyType
	if propertyType == "" {
		propertyType = "A"
	}

	candidates, err := s.listingsRepo.FindNearby(ctx, repository.NearbyQuery{
		Lat:             ref.Latitude,
		Lng:             ref.Longitude,
		RadiusMiles:     mapSearchRadiusMiles,
		PropertyType:    propertyType,
		PropertySubType: ref.PropertySubType,
		City:            ref.City,
		Limit:           mapMaxQueueSize,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching nearby listings: %w", err)
	}

	items := make([]model.QueueItem, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.ListingKey == ref.ListingKey {
			continue
		}
		if c.IsCoOwnership() {
			continue
		}
		if !pricesCompatible(ref.ListPrice, c.ListPrice) {
			continue
		}
		items = append(items, model.NewQueueItem(c, scoreCandidate(c, ref)))
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Score < items[j].Score })

	log.Printf("✅ MapProximity: %d of %d candidates queued", len(items), len(candidates))
	return items, nil
}

// scoreCandidate applies the tier scheme: fixed base offset plus distance in
// miles as the in-tier tie-breaker. Lower is shown sooner.
func scoreCandidate(c, ref *model.Listing) float64 {
	distance := helper.DistanceMiles(ref.ToLatLng(), c.ToLatLng())

	sameSubdivision := ref.SubdivisionName != "" && c.SubdivisionName != "" &&
		strings.EqualFold(c.SubdivisionName, ref.SubdivisionName)
	sameSubType := c.PropertySubType == ref.PropertySubType
	sameCity := strings.EqualFold(c.City, ref.City)
	sameZip := c.PostalCode == ref.PostalCode

	switch {
	case sameSubdivision && sameSubType && sameCity && sameZip:
		return tierExactMatch + distance
	case sameSubdivision && sameSubType && sameCity:
		return tierSubdivisionSubType + distance
	case sameSubdivision && sameCity && sameZip:
		return tierSubdivisionZip + distance
	case sameSubdivision && sameCity:
		return tierSubdivision + distance
	case sameCity && distance <= 2 && sameSubType && sameZip:
		return tierNearbySameSubTypeZip + distance
	case sameCity && distance <= 5 && sameSubType && sameZip:
		return tierModerateSameSubType + distance
	case sameCity && distance <= 5:
		return tierSameCity + distance
	default:
		return tierFallback + distance
	}
}

// priceBracket returns the bracket index for a price, or -1 when unknown.
func priceBracket(price float64) int {
	if price <= 0 {
		return -1
	}
	for i, bound := range priceBracketBounds {
		if price < bound {
			return i
		}
	}
	return len(priceBracketBounds)
}

// pricesCompatible reports whether two prices sit in the same or adjacent
// brackets. Unknown prices are never compatible.
func pricesCompatible(a, b float64) bool {
	ba, bb := priceBracket(a), priceBracket(b)
	if ba == -1 || bb == -1 {
		return false
	}
	diff := ba - bb
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}
