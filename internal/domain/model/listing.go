// Package model defines the domain entities shared across the map surface and
// the recommendation queue.
package model

import "strings"

// Listing is one active property listing as delivered by the listings
// service. Field names follow the RESO-style columns of the source feeds.
type Listing struct {
	ListingKey      string  `json:"listingKey" db:"listing_key"`
	Slug            string  `json:"slug" db:"slug"`
	SlugAddress     string  `json:"slugAddress" db:"slug_address"`
	Latitude        float64 `json:"latitude" db:"latitude"`
	Longitude       float64 `json:"longitude" db:"longitude"`
	ListPrice       float64 `json:"listPrice" db:"list_price"`
	City            string  `json:"city" db:"city"`
	SubdivisionName string  `json:"subdivisionName" db:"subdivision_name"`
	PropertyType    string  `json:"propertyType" db:"property_type"`
	PropertySubType string  `json:"propertySubType" db:"property_sub_type"`
	PostalCode      string  `json:"postalCode" db:"postal_code"`
	MLSSource       string  `json:"mlsSource" db:"mls_source"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ToLatLng returns the listing's position.
func (l *Listing) ToLatLng() LatLng {
	return LatLng{Lat: l.Latitude, Lng: l.Longitude}
}

// DisplaySlug returns the slug used for detail-page routing, preferring the
// address-based slug when present.
func (l *Listing) DisplaySlug() string {
	if l.SlugAddress != "" {
		return l.SlugAddress
	}
	return l.Slug
}

// IsCoOwnership reports whether this is a fractional co-ownership product.
// Those never enter recommendation queues.
func (l *Listing) IsCoOwnership() bool {
	return strings.Contains(strings.ToLower(l.PropertySubType), "co-ownership")
}

// TotalCount carries the per-source listing totals a viewport query matched.
type TotalCount struct {
	GPS   int `json:"gps"`
	CRMLS int `json:"crmls"`
	Total int `json:"total"`
}
