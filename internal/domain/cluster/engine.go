// Package cluster splits the listings visible in a map viewport into
// individual center markers and grid-based periphery clusters. Everything in
// this package is a pure function of its inputs.
package cluster

import (
	"math"

	"mlsmap/internal/domain/model"
)

// DefaultFocusFraction is the share of the viewport's average span used for
// the focus-circle radius.
const DefaultFocusFraction = 0.35

const (
	desktopFocusMultiplier = 1.8
	mobileFocusMultiplier  = 2.0

	// Marker budget before clustering kicks in. Mobile gets the larger
	// budget to favor marker spread over aggregates.
	desktopMaxMarkers = 150
	mobileMaxMarkers  = 200

	desktopMinClusterSize = 8
	mobileMinClusterSize  = 10

	// Below this many periphery listings, grid clustering is skipped
	// entirely and no clusters are emitted.
	peripheryClusterFloor = 40
)

// Result is the output of Partition.
type Result struct {
	CenterMarkers     []model.Listing   `json:"centerMarkers"`
	PeripheryClusters []model.Cluster   `json:"peripheryClusters"`
	FocusCircle       model.FocusCircle `json:"focusCircle"`
}

// ComputeFocusCircle derives the central sub-region of a viewport: the
// centroid plus a radius sized as a fraction of the average angular span,
// widened on mobile.
func ComputeFocusCircle(vp model.Viewport, focusFraction float64) model.FocusCircle {
	if focusFraction <= 0 {
		focusFraction = DefaultFocusFraction
	}
	multiplier := desktopFocusMultiplier
	if vp.IsMobile {
		multiplier = mobileFocusMultiplier
	}
	avgSpan := (vp.LatSpan() + vp.LngSpan()) / 2
	return model.FocusCircle{
		Center:          vp.Center(),
		RadiusInDegrees: (avgSpan / 2) * focusFraction * multiplier,
	}
}

// Partition splits the viewport's listings into center markers and periphery
// clusters.
//
// Sparse viewports (at or under the device marker budget) skip clustering and
// return every listing as a center marker. Periphery grid buckets under the
// minimum cluster size are dropped from the output, not re-surfaced as
// markers; callers that want those listings back render the unclustered
// periphery themselves.
func Partition(listings []model.Listing, vp model.Viewport, focusFraction float64) Result {
	focus := ComputeFocusCircle(vp, focusFraction)

	maxMarkers := desktopMaxMarkers
	minClusterSize := desktopMinClusterSize
	if vp.IsMobile {
		maxMarkers = mobileMaxMarkers
		minClusterSize = mobileMinClusterSize
	}

	if len(listings) <= maxMarkers {
		return Result{
			CenterMarkers:     listings,
			PeripheryClusters: []model.Cluster{},
			FocusCircle:       focus,
		}
	}

	var center []model.Listing
	var periphery []model.Listing
	for _, l := range listings {
		if focus.Contains(l.ToLatLng()) {
			center = append(center, l)
		} else {
			periphery = append(periphery, l)
		}
	}

	gridSize := GridSizeForZoom(vp.Zoom, vp.IsMobile)
	return Result{
		CenterMarkers:     center,
		PeripheryClusters: clusterPeriphery(periphery, gridSize, minClusterSize),
		FocusCircle:       focus,
	}
}

// GridSizeForZoom picks the clustering grid cell size in degrees: finer at
// higher zoom, halved on mobile for better spread.
func GridSizeForZoom(zoom int, isMobile bool) float64 {
	multiplier := 1.0
	if isMobile {
		multiplier = 0.5
	}
	switch {
	case zoom >= 15:
		return 0.005 * multiplier // ~500m
	case zoom >= 14:
		return 0.01 * multiplier // ~1km
	case zoom >= 13:
		return 0.02 * multiplier // ~2km
	case zoom >= 12:
		return 0.05 * multiplier // ~5km
	case zoom >= 11:
		return 0.1 * multiplier // ~10km
	case zoom >= 10:
		return 0.2 * multiplier // ~20km
	default:
		return 0.5 * multiplier // ~50km
	}
}

type gridKey struct {
	latCell int
	lngCell int
}

// clusterPeriphery buckets listings into grid cells and emits a cluster for
// every bucket meeting the minimum size. The cluster centroid is the mean of
// member positions, never the cell corner.
func clusterPeriphery(listings []model.Listing, gridSize float64, minClusterSize int) []model.Cluster {
	if len(listings) <= peripheryClusterFloor {
		return []model.Cluster{}
	}

	buckets := make(map[gridKey][]model.Listing)
	for _, l := range listings {
		key := gridKey{
			latCell: int(math.Round(l.Latitude / gridSize)),
			lngCell: int(math.Round(l.Longitude / gridSize)),
		}
		buckets[key] = append(buckets[key], l)
	}

	clusters := make([]model.Cluster, 0, len(buckets))
	for _, members := range buckets {
		if len(members) < minClusterSize {
			continue
		}

		var sumLat, sumLng, sumPrice float64
		minPrice := math.Inf(1)
		maxPrice := math.Inf(-1)
		for _, m := range members {
			sumLat += m.Latitude
			sumLng += m.Longitude
			sumPrice += m.ListPrice
			minPrice = math.Min(minPrice, m.ListPrice)
			maxPrice = math.Max(maxPrice, m.ListPrice)
		}
		n := float64(len(members))

		clusters = append(clusters, model.Cluster{
			Latitude:  sumLat / n,
			Longitude: sumLng / n,
			Count:     len(members),
			MinPrice:  minPrice,
			MaxPrice:  maxPrice,
			AvgPrice:  math.Round(sumPrice / n),
			Listings:  members,
		})
	}
	return clusters
}
