package repository

import (
	"context"

	"mlsmap/internal/domain/model"
)

// NearbyQuery parameterizes a radius search around a reference listing.
type NearbyQuery struct {
	Lat             float64
	Lng             float64
	RadiusMiles     float64
	PropertyType    string
	PropertySubType string
	City            string
	Limit           int
}

// ListingsRepository is the read surface onto the external listings service
// used by the recommendation strategies.
type ListingsRepository interface {
	// FindNearby returns active listings around a point, newest-first as the
	// service delivers them.
	FindNearby(ctx context.Context, q NearbyQuery) ([]model.Listing, error)

	// FindByNeighborhood returns active listings for a subdivision or city
	// (paginated internally up to limit) plus the total available count.
	// neighborhoodType is model.NeighborhoodSubdivision or
	// model.NeighborhoodCity; neighborhoodID is the slug identifier.
	FindByNeighborhood(ctx context.Context, neighborhoodType, neighborhoodID string, filters model.NeighborhoodFilters, limit int) ([]model.Listing, int, error)
}

// BoundsQuery parameterizes a viewport-scoped marker fetch.
type BoundsQuery struct {
	Viewport model.Viewport
	Filters  model.MapFilters
}

// ListingBatch is one discrete message of a streamed bounding-box query.
// Total is set on the upfront metadata frame; Err carries a terminal
// transport error. The channel closes after the final frame.
type ListingBatch struct {
	Listings []model.Listing
	Total    *model.TotalCount
	Err      error
}

// ClusterPage is the single-response payload of a pre-aggregated cluster
// query at low and medium zoom.
type ClusterPage struct {
	Clusters []model.ServerCluster
	Listings []model.Listing
	Total    model.TotalCount
}

// MarkerRepository is the viewport transport used by the marker loader. High
// zoom levels stream individual listings; lower zooms fetch server clusters
// in one shot.
type MarkerRepository interface {
	StreamListings(ctx context.Context, q BoundsQuery) (<-chan ListingBatch, error)
	FetchClusters(ctx context.Context, q BoundsQuery) (*ClusterPage, error)
}

// SwipeEventsRepository journals swipe decisions reported by the card UI.
type SwipeEventsRepository interface {
	RecordSwipes(ctx context.Context, events []model.SwipeEvent) error
}
