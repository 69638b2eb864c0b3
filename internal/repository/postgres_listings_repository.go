package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"mlsmap/internal/domain/helper"
	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
	"mlsmap/internal/infrastructure/database"
)

const listingColumns = `listing_key, slug, slug_address, latitude, longitude, list_price,
	city, subdivision_name, property_type, property_sub_type, postal_code, mls_source`

// PostgresListingsRepository reads the listings database directly, for
// deployments without a PostgREST layer.
type PostgresListingsRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresListingsRepository(client *database.PostgreSQLClient) repository.ListingsRepository {
	return &PostgresListingsRepository{client: client}
}

// FindNearby pre-filters with a bounding box in SQL and refines to the exact
// radius in Go. One degree of latitude is ~69 miles; the longitude window
// widens with latitude.
func (r *PostgresListingsRepository) FindNearby(ctx context.Context, q repository.NearbyQuery) ([]model.Listing, error) {
	latDelta := q.RadiusMiles / 69.0
	lngDelta := latDelta / math.Cos(q.Lat*math.Pi/180)

	where := []string{
		"standard_status = 'Active'",
		"property_type = $1",
		"latitude BETWEEN $2 AND $3",
		"longitude BETWEEN $4 AND $5",
	}
	args := []interface{}{
		q.PropertyType,
		q.Lat - latDelta, q.Lat + latDelta,
		q.Lng - lngDelta, q.Lng + lngDelta,
	}
	if q.City != "" {
		args = append(args, q.City)
		where = append(where, fmt.Sprintf("city ILIKE $%d", len(args)))
	}

	args = append(args, q.Limit*2)
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE %s LIMIT $%d`,
		listingColumns, strings.Join(where, " AND "), len(args))

	var listings []model.Listing
	if err := r.client.DB.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("querying nearby listings: %w", err)
	}

	center := model.LatLng{Lat: q.Lat, Lng: q.Lng}
	nearby := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
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

// FindByNeighborhood queries a subdivision or city slug with the optional
// filter set, newest page conventions matching the service: beds/baths are
// exact for subdivisions and minimums for cities.
func (r *PostgresListingsRepository) FindByNeighborhood(ctx context.Context, neighborhoodType, neighborhoodID string, f model.NeighborhoodFilters, limit int) ([]model.Listing, int, error) {
	var slugColumn string
	switch neighborhoodType {
	case model.NeighborhoodSubdivision:
		slugColumn = "subdivision_slug"
	case model.NeighborhoodCity:
		slugColumn = "city_slug"
	default:
		return nil, 0, fmt.Errorf("unknown neighborhood type %q", neighborhoodType)
	}

	where := []string{"standard_status = 'Active'", fmt.Sprintf("%s = $1", slugColumn)}
	args := []interface{}{neighborhoodID}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.MinPrice > 0 {
		add("list_price >= $%d", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		add("list_price <= $%d", f.MaxPrice)
	}

	roomOp := ">="
	if neighborhoodType == model.NeighborhoodSubdivision {
		roomOp = "="
	}
	if f.Beds > 0 {
		add("bedrooms_total "+roomOp+" $%d", f.Beds)
	}
	if f.Baths > 0 {
		add("bathrooms_total "+roomOp+" $%d", f.Baths)
	}

	if f.MinSqft > 0 {
		add("living_area >= $%d", f.MinSqft)
	}
	if f.MaxSqft > 0 {
		add("living_area <= $%d", f.MaxSqft)
	}
	if f.MinLotSize > 0 {
		add("lot_size_sqft >= $%d", f.MinLotSize)
	}
	if f.MaxLotSize > 0 {
		add("lot_size_sqft <= $%d", f.MaxLotSize)
	}
	if f.MinYear > 0 {
		add("year_built >= $%d", f.MinYear)
	}
	if f.MaxYear > 0 {
		add("year_built <= $%d", f.MaxYear)
	}

	if f.Pool {
		where = append(where, "pool_yn = true")
	}
	if f.Spa {
		where = append(where, "spa_yn = true")
	}
	if f.View {
		where = append(where, "view_yn = true")
	}
	if f.Fireplace {
		where = append(where, "fireplace_yn = true")
	}
	if f.GatedCommunity {
		where = append(where, "gated_community = true")
	}
	if f.SeniorCommunity {
		where = append(where, "senior_community_yn = true")
	}

	if f.GarageSpaces > 0 {
		add("garage_spaces >= $%d", f.GarageSpaces)
	}
	if f.Stories > 0 {
		add("stories = $%d", f.Stories)
	}
	if f.PropertyType != "" {
		add("property_type = $%d", f.PropertyType)
	}

	if f.EastOf != "" {
		add("longitude >= $%d", f.EastOf)
	}
	if f.WestOf != "" {
		add("longitude <= $%d", f.WestOf)
	}
	if f.NorthOf != "" {
		add("latitude >= $%d", f.NorthOf)
	}
	if f.SouthOf != "" {
		add("latitude <= $%d", f.SouthOf)
	}

	if f.HasHOA != nil {
		if *f.HasHOA {
			where = append(where, "association_fee > 0")
		} else {
			where = append(where, "COALESCE(association_fee, 0) = 0")
		}
	}
	if f.MinHOA > 0 {
		add("association_fee >= $%d", f.MinHOA)
	}
	if f.MaxHOA > 0 {
		add("association_fee <= $%d", f.MaxHOA)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM listings WHERE %s", whereClause)
	if err := r.client.DB.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("counting %s listings: %w", neighborhoodType, err)
	}

	args = append(args, limit)
	query := fmt.Sprintf("SELECT %s FROM listings WHERE %s ORDER BY list_price DESC LIMIT $%d",
		listingColumns, whereClause, len(args))

	var listings []model.Listing
	if err := r.client.DB.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("querying %s listings: %w", neighborhoodType, err)
	}
	return listings, total, nil
}
