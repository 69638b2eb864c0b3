package application

import (
	"time"

	"github.com/paulmach/orb"

	"mlsmap/internal/domain/model"
)

// loadedRegion records one satisfied viewport fetch: bounds, the zoom level
// the server grouped results for, and when it loaded.
type loadedRegion struct {
	bound    orb.Bound
	zoom     int
	loadedAt time.Time
}

// regionCache decides whether a viewport is already covered by a previous
// load. Not safe for concurrent use on its own; the loader serializes access.
type regionCache struct {
	regions   []loadedRegion
	max       int
	freshness time.Duration
	margin    float64
}

func newRegionCache(max int, freshness time.Duration, margin float64) *regionCache {
	return &regionCache{max: max, freshness: freshness, margin: margin}
}

// Covers reports whether a fresh region at the same zoom level fully contains
// the viewport. Zoom levels are never interchangeable because the server
// groups results differently per zoom. The stored bound is padded by a small
// margin so a viewport touching the edge of its source region still counts.
func (c *regionCache) Covers(vp model.Viewport, now time.Time) bool {
	target := vp.Bound()
	for _, r := range c.regions {
		if r.zoom != vp.Zoom {
			continue
		}
		if now.Sub(r.loadedAt) > c.freshness {
			continue
		}
		padded := r.bound.Pad(c.margin)
		if padded.Contains(target.Min) && padded.Contains(target.Max) {
			return true
		}
	}
	return false
}

// Record remembers a completed load, evicting the oldest entry beyond the
// retention cap.
func (c *regionCache) Record(vp model.Viewport, now time.Time) {
	c.regions = append(c.regions, loadedRegion{
		bound:    vp.Bound(),
		zoom:     vp.Zoom,
		loadedAt: now,
	})
	if len(c.regions) > c.max {
		c.regions = c.regions[len(c.regions)-c.max:]
	}
}

// Clear drops all coverage, used when the filter set changes.
func (c *regionCache) Clear() {
	c.regions = c.regions[:0]
}

// Len returns the number of retained regions.
func (c *regionCache) Len() int { return len(c.regions) }
