package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/supabase-community/postgrest-go"

	"mlsmap/internal/domain/helper"
	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
	"mlsmap/internal/infrastructure/database"
)

const neighborhoodPageSize = 50

// SupabaseListingsRepository reads the listings service through PostgREST.
type SupabaseListingsRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseListingsRepository(client *database.SupabaseClient) repository.ListingsRepository {
	return &SupabaseListingsRepository{client: client}
}

// FindNearby fetches active city listings and filters them to the radius.
// PostGIS radius search is not exposed through PostgREST here, so the radius
// cut happens client-side on a city-bounded result set.
func (r *SupabaseListingsRepository) FindNearby(ctx context.Context, q repository.NearbyQuery) ([]model.Listing, error) {
	query := r.client.GetClient().From("listings").
		Select("*", "exact", false).
		Eq("standard_status", "Active").
		Eq("property_type", q.PropertyType)
	if q.City != "" {
		query = query.Eq("city", q.City)
	}

	data, _, err := query.Limit(q.Limit*2, "").Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching nearby listings: %w", err)
	}

	var listings []model.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("unmarshaling nearby listings: %w", err)
	}

	center := model.LatLng{Lat: q.Lat, Lng: q.Lng}
	nearby := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Latitude == 0 && l.Longitude == 0 {
			continue
		}
		if helper.DistanceMiles(center, l.ToLatLng()) > q.RadiusMiles {
			continue
		}
		nearby = append(nearby, l)
		if len(nearby) == q.Limit {
			break
		}
	}
	return nearby, nil
}

// FindByNeighborhood pages through a subdivision's or city's active listings
// up to limit. Subdivision queries treat beds/baths as exact matches, city
// queries as minimums, matching the listings service conventions.
func (r *SupabaseListingsRepository) FindByNeighborhood(ctx context.Context, neighborhoodType, neighborhoodID string, filters model.NeighborhoodFilters, limit int) ([]model.Listing, int, error) {
	var slugColumn string
	switch neighborhoodType {
	case model.NeighborhoodSubdivision:
		slugColumn = "subdivision_slug"
	case model.NeighborhoodCity:
		slugColumn = "city_slug"
	default:
		return nil, 0, fmt.Errorf("unknown neighborhood type %q", neighborhoodType)
	}

	var all []model.Listing
	total := 0
	for offset := 0; offset < limit; offset += neighborhoodPageSize {
		query := r.client.GetClient().From("listings").
			Select("*", "exact", false).
			Eq("standard_status", "Active").
			Eq(slugColumn, neighborhoodID)
		query = applyNeighborhoodFilters(query, neighborhoodType, filters)

		end := offset + neighborhoodPageSize - 1
		if end >= limit {
			end = limit - 1
		}
		data, count, err := query.Range(offset, end, "").Execute()
		if err != nil {
			return nil, 0, fmt.Errorf("fetching %s page at offset %d: %w", neighborhoodType, offset, err)
		}
		total = int(count)

		var page []model.Listing
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, 0, fmt.Errorf("unmarshaling %s listings: %w", neighborhoodType, err)
		}
		all = append(all, page...)
		if len(page) < neighborhoodPageSize {
			break
		}
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

// applyNeighborhoodFilters translates the optional filter set into PostgREST
// conditions. Zero values are omitted.
func applyNeighborhoodFilters(query *postgrest.FilterBuilder, neighborhoodType string, f model.NeighborhoodFilters) *postgrest.FilterBuilder {
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	if f.MinPrice > 0 {
		query = query.Gte("list_price", num(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		query = query.Lte("list_price", num(f.MaxPrice))
	}

	exactRooms := neighborhoodType == model.NeighborhoodSubdivision
	if f.Beds > 0 {
		if exactRooms {
			query = query.Eq("bedrooms_total", strconv.Itoa(f.Beds))
		} else {
			query = query.Gte("bedrooms_total", strconv.Itoa(f.Beds))
		}
	}
	if f.Baths > 0 {
		if exactRooms {
			query = query.Eq("bathrooms_total", strconv.Itoa(f.Baths))
		} else {
			query = query.Gte("bathrooms_total", strconv.Itoa(f.Baths))
		}
	}

	if f.MinSqft > 0 {
		query = query.Gte("living_area", num(f.MinSqft))
	}
	if f.MaxSqft > 0 {
		query = query.Lte("living_area", num(f.MaxSqft))
	}
	if f.MinLotSize > 0 {
		query = query.Gte("lot_size_sqft", num(f.MinLotSize))
	}
	if f.MaxLotSize > 0 {
		query = query.Lte("lot_size_sqft", num(f.MaxLotSize))
	}
	if f.MinYear > 0 {
		query = query.Gte("year_built", strconv.Itoa(f.MinYear))
	}
	if f.MaxYear > 0 {
		query = query.Lte("year_built", strconv.Itoa(f.MaxYear))
	}

	if f.Pool {
		query = query.Eq("pool_yn", "true")
	}
	if f.Spa {
		query = query.Eq("spa_yn", "true")
	}
	if f.View {
		query = query.Eq("view_yn", "true")
	}
	if f.Fireplace {
		query = query.Eq("fireplace_yn", "true")
	}
	if f.GatedCommunity {
		query = query.Eq("gated_community", "true")
	}
	if f.SeniorCommunity {
		query = query.Eq("senior_community_yn", "true")
	}

	if f.GarageSpaces > 0 {
		query = query.Gte("garage_spaces", strconv.Itoa(f.GarageSpaces))
	}
	if f.Stories > 0 {
		query = query.Eq("stories", strconv.Itoa(f.Stories))
	}
	if f.PropertyType != "" {
		query = query.Eq("property_type", f.PropertyType)
	}

	if f.EastOf != "" {
		query = query.Gte("longitude", f.EastOf)
	}
	if f.WestOf != "" {
		query = query.Lte("longitude", f.WestOf)
	}
	if f.NorthOf != "" {
		query = query.Gte("latitude", f.NorthOf)
	}
	if f.SouthOf != "" {
		query = query.Lte("latitude", f.SouthOf)
	}

	if f.HasHOA != nil {
		if *f.HasHOA {
			query = query.Gt("association_fee", "0")
		} else {
			query = query.Eq("association_fee", "0")
		}
	}
	if f.MinHOA > 0 {
		query = query.Gte("association_fee", num(f.MinHOA))
	}
	if f.MaxHOA > 0 {
		query = query.Lte("association_fee", num(f.MaxHOA))
	}

	return query
}
