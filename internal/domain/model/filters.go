package model

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// MapFilters is the active filter set of the map surface. Values stay as the
// strings the UI sends; the listings service parses them. Empty strings and
// false flags mean "not set".
type MapFilters struct {
	ListingType     string `json:"listingType,omitempty"`
	MinPrice        string `json:"minPrice,omitempty"`
	MaxPrice        string `json:"maxPrice,omitempty"`
	Beds            string `json:"beds,omitempty"`
	Baths           string `json:"baths,omitempty"`
	MinSqft         string `json:"minSqft,omitempty"`
	MaxSqft         string `json:"maxSqft,omitempty"`
	MinLotSize      string `json:"minLotSize,omitempty"`
	MaxLotSize      string `json:"maxLotSize,omitempty"`
	MinYear         string `json:"minYear,omitempty"`
	MaxYear         string `json:"maxYear,omitempty"`
	PropertyType    string `json:"propertyType,omitempty"`
	PropertySubType string `json:"propertySubType,omitempty"`
	MinGarages      string `json:"minGarages,omitempty"`
	HOA             string `json:"hoa,omitempty"`
	LandType        string `json:"landType,omitempty"`
	City            string `json:"city,omitempty"`
	Subdivision     string `json:"subdivision,omitempty"`

	PoolYn          bool `json:"poolYn,omitempty"`
	SpaYn           bool `json:"spaYn,omitempty"`
	ViewYn          bool `json:"viewYn,omitempty"`
	GarageYn        bool `json:"garageYn,omitempty"`
	AssociationYN   bool `json:"associationYN,omitempty"`
	GatedCommunity  bool `json:"gatedCommunity,omitempty"`
	SeniorCommunity bool `json:"seniorCommunity,omitempty"`
}

// Hash returns a stable fingerprint of the filter set. Two filter sets hash
// equal exactly when every field matches; the region cache keys its coverage
// on this.
func (f MapFilters) Hash() string {
	data, err := json.Marshal(f)
	if err != nil {
		// Marshaling a flat struct of strings and bools cannot fail.
		panic(err)
	}
	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}

// NeighborhoodFilters narrows a neighborhood queue query. Zero values are
// ignored. Beds and Baths are exact matches for subdivision queries and
// minimums for city queries.
type NeighborhoodFilters struct {
	MinPrice float64 `json:"minPrice,omitempty"`
	MaxPrice float64 `json:"maxPrice,omitempty"`

	Beds  int `json:"beds,omitempty"`
	Baths int `json:"baths,omitempty"`

	MinSqft    float64 `json:"minSqft,omitempty"`
	MaxSqft    float64 `json:"maxSqft,omitempty"`
	MinLotSize float64 `json:"minLotSize,omitempty"`
	MaxLotSize float64 `json:"maxLotSize,omitempty"`
	MinYear    int     `json:"minYear,omitempty"`
	MaxYear    int     `json:"maxYear,omitempty"`

	Pool            bool `json:"pool,omitempty"`
	Spa             bool `json:"spa,omitempty"`
	View            bool `json:"view,omitempty"`
	Fireplace       bool `json:"fireplace,omitempty"`
	GatedCommunity  bool `json:"gatedCommunity,omitempty"`
	SeniorCommunity bool `json:"seniorCommunity,omitempty"`

	GarageSpaces int    `json:"garageSpaces,omitempty"`
	Stories      int    `json:"stories,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`

	// Directional bounds, sent as raw coordinate strings by the chat layer.
	EastOf  string `json:"eastOf,omitempty"`
	WestOf  string `json:"westOf,omitempty"`
	NorthOf string `json:"northOf,omitempty"`
	SouthOf string `json:"southOf,omitempty"`

	// HasHOA distinguishes "no HOA" from "don't care".
	HasHOA *bool   `json:"hasHoa,omitempty"`
	MinHOA float64 `json:"minHoa,omitempty"`
	MaxHOA float64 `json:"maxHoa,omitempty"`
}
