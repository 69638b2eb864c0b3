// Package helper holds small pure utilities shared by strategies and
// repositories.
package helper

import (
	"math"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"mlsmap/internal/domain/model"
)

const metersPerMile = 1609.344

// DistanceMiles returns the great-circle distance between two coordinates in
// miles.
func DistanceMiles(a, b model.LatLng) float64 {
	return geo.Distance(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat}) / metersPerMile
}

// DegreeDistance returns the flat angular distance between two coordinates,
// used for viewport-scale containment checks where great-circle precision is
// unnecessary.
func DegreeDistance(a, b model.LatLng) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

var slugSeparators = regexp.MustCompile(`[\s_]+`)

// Slugify lowercases a display name into its slug form: whitespace and
// underscores collapse to single hyphens.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	return slugSeparators.ReplaceAllString(slug, "-")
}
