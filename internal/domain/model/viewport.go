package model

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Viewport is the visible map rectangle plus the rendering context that
// changes clustering behavior.
type Viewport struct {
	North    float64 `json:"north"`
	South    float64 `json:"south"`
	East     float64 `json:"east"`
	West     float64 `json:"west"`
	Zoom     int     `json:"zoom"`
	IsMobile bool    `json:"isMobile"`
}

// Bound returns the viewport as an orb rectangle (lng/lat order).
func (v Viewport) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{v.West, v.South},
		Max: orb.Point{v.East, v.North},
	}
}

// Center returns the viewport centroid.
func (v Viewport) Center() LatLng {
	return LatLng{
		Lat: (v.North + v.South) / 2,
		Lng: (v.East + v.West) / 2,
	}
}

// LatSpan returns the latitude extent in degrees.
func (v Viewport) LatSpan() float64 { return v.North - v.South }

// LngSpan returns the longitude extent in degrees.
func (v Viewport) LngSpan() float64 { return v.East - v.West }

// FocusCircle is the central viewport sub-region whose listings render as
// individual markers.
type FocusCircle struct {
	Center          LatLng  `json:"center"`
	RadiusInDegrees float64 `json:"radiusInDegrees"`
}

// Contains reports whether a point falls inside the circle. Angular Euclidean
// distance is deliberate: at viewport scale the flat-earth error is far below
// marker size.
func (f FocusCircle) Contains(p LatLng) bool {
	return math.Hypot(p.Lat-f.Center.Lat, p.Lng-f.Center.Lng) <= f.RadiusInDegrees
}

// Cluster is a client-side periphery cluster: a grid bucket of listings with
// its mean position and price stats.
type Cluster struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Count     int       `json:"count"`
	MinPrice  float64   `json:"minPrice"`
	MaxPrice  float64   `json:"maxPrice"`
	AvgPrice  float64   `json:"avgPrice"`
	Listings  []Listing `json:"listings"`
}

// ServerCluster is a pre-aggregated cluster delivered by the listings service
// at low and medium zoom.
type ServerCluster struct {
	ID            int64   `json:"id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Count         int     `json:"count"`
	ExpansionZoom int     `json:"expansionZoom"`
	MinPrice      float64 `json:"minPrice"`
	MaxPrice      float64 `json:"maxPrice"`
	AvgPrice      float64 `json:"avgPrice"`
}

// MapMarker is one renderable map element: exactly one of Listing or Cluster
// is set.
type MapMarker struct {
	Listing *Listing       `json:"listing,omitempty"`
	Cluster *ServerCluster `json:"cluster,omitempty"`
}

// IsCluster reports whether the marker is an aggregate.
func (m MapMarker) IsCluster() bool { return m.Cluster != nil }

// Key returns a stable identity for de-duplication across batches.
func (m MapMarker) Key() string {
	if m.Listing != nil {
		return m.Listing.ListingKey
	}
	if m.Cluster != nil {
		return fmt.Sprintf("cluster:%d", m.Cluster.ID)
	}
	return ""
}
