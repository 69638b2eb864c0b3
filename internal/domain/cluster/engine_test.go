package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"mlsmap/internal/domain/model"
)

func desktopViewport() model.Viewport {
	return model.Viewport{
		North: 33.80, South: 33.60,
		East: -116.10, West: -116.40,
		Zoom: 13,
	}
}

func listingAt(key string, lat, lng, price float64) model.Listing {
	return model.Listing{ListingKey: key, Latitude: lat, Longitude: lng, ListPrice: price}
}

// spread fabricates n listings spaced across the viewport periphery.
func spread(n int, baseLat, baseLng, step float64) []model.Listing {
	listings := make([]model.Listing, 0, n)
	for i := 0; i < n; i++ {
		listings = append(listings, listingAt(
			fmt.Sprintf("L%03d", i),
			baseLat+float64(i%10)*step,
			baseLng+float64(i/10)*step,
			500_000,
		))
	}
	return listings
}

func TestComputeFocusCircle(t *testing.T) {
	vp := desktopViewport()

	t.Run("centered on the viewport", func(t *testing.T) {
		focus := ComputeFocusCircle(vp, DefaultFocusFraction)
		assert.InDelta(t, 33.70, focus.Center.Lat, 1e-9)
		assert.InDelta(t, -116.25, focus.Center.Lng, 1e-9)
	})

	t.Run("mobile radius is wider", func(t *testing.T) {
		desktop := ComputeFocusCircle(vp, DefaultFocusFraction)
		mobileVP := vp
		mobileVP.IsMobile = true
		mobile := ComputeFocusCircle(mobileVP, DefaultFocusFraction)
		assert.Greater(t, mobile.RadiusInDegrees, desktop.RadiusInDegrees)
	})

	t.Run("non-positive fraction falls back to the default", func(t *testing.T) {
		fallback := ComputeFocusCircle(vp, 0)
		explicit := ComputeFocusCircle(vp, DefaultFocusFraction)
		assert.Equal(t, explicit, fallback)
	})
}

func TestPartitionSparseViewport(t *testing.T) {
	vp := desktopViewport()
	listings := spread(desktopMaxMarkers, 33.61, -116.39, 0.002)

	result := Partition(listings, vp, DefaultFocusFraction)

	assert.Len(t, result.CenterMarkers, desktopMaxMarkers,
		"at or under the budget everything renders individually")
	assert.Empty(t, result.PeripheryClusters)
}

func TestPartitionDenseViewport(t *testing.T) {
	vp := desktopViewport()

	// Over budget: a dense block near the center plus a dense block in one
	// periphery corner.
	centerBlock := spread(100, 33.695, -116.255, 0.001)
	cornerBlock := make([]model.Listing, 0, 120)
	for i := 0; i < 120; i++ {
		cornerBlock = append(cornerBlock, listingAt(
			fmt.Sprintf("P%03d", i),
			33.62+float64(i%5)*0.0001,
			-116.38+float64(i/5)*0.0001,
			400_000+float64(i)*1000,
		))
	}
	all := append(append([]model.Listing{}, centerBlock...), cornerBlock...)

	result := Partition(all, vp, DefaultFocusFraction)

	t.Run("focus listings stay individual markers", func(t *testing.T) {
		assert.NotEmpty(t, result.CenterMarkers)
		for _, l := range result.CenterMarkers {
			assert.True(t, result.FocusCircle.Contains(l.ToLatLng()))
		}
	})

	t.Run("dense periphery corner clusters", func(t *testing.T) {
		assert.NotEmpty(t, result.PeripheryClusters)
	})

	t.Run("centroid is the member mean with price stats", func(t *testing.T) {
		c := result.PeripheryClusters[0]
		var sumLat, sumLng float64
		for _, m := range c.Listings {
			sumLat += m.Latitude
			sumLng += m.Longitude
		}
		n := float64(c.Count)
		assert.InDelta(t, sumLat/n, c.Latitude, 1e-9)
		assert.InDelta(t, sumLng/n, c.Longitude, 1e-9)
		assert.LessOrEqual(t, c.MinPrice, c.AvgPrice)
		assert.LessOrEqual(t, c.AvgPrice, c.MaxPrice)
	})

	t.Run("every partitioned listing is accounted for at most once", func(t *testing.T) {
		seen := map[string]bool{}
		for _, l := range result.CenterMarkers {
			assert.False(t, seen[l.ListingKey])
			seen[l.ListingKey] = true
		}
		for _, c := range result.PeripheryClusters {
			for _, l := range c.Listings {
				assert.False(t, seen[l.ListingKey])
				seen[l.ListingKey] = true
			}
		}
	})
}

func TestClusterPeripheryFloor(t *testing.T) {
	// At or under the floor no clusters are emitted at all.
	listings := spread(peripheryClusterFloor, 33.62, -116.38, 0.0001)
	clusters := clusterPeriphery(listings, 0.02, desktopMinClusterSize)
	assert.Empty(t, clusters)
}

func TestClusterPeripheryDropsSmallBuckets(t *testing.T) {
	// One dense bucket plus scattered singles: only the dense bucket emits.
	dense := spread(30, 33.620, -116.380, 0.0001)
	scattered := make([]model.Listing, 0, 20)
	for i := 0; i < 20; i++ {
		scattered = append(scattered, listingAt(
			fmt.Sprintf("S%02d", i),
			33.70+float64(i)*0.05,
			-116.00-float64(i)*0.05,
			300_000,
		))
	}
	all := append(append([]model.Listing{}, dense...), scattered...)

	clusters := clusterPeriphery(all, 0.02, desktopMinClusterSize)
	assert.Len(t, clusters, 1)
	assert.Equal(t, 30, clusters[0].Count)
}

func TestGridSizeForZoom(t *testing.T) {
	t.Run("finer grid at higher zoom", func(t *testing.T) {
		assert.Greater(t, GridSizeForZoom(10, false), GridSizeForZoom(13, false))
		assert.Greater(t, GridSizeForZoom(13, false), GridSizeForZoom(15, false))
	})

	t.Run("mobile halves the grid", func(t *testing.T) {
		assert.InDelta(t, GridSizeForZoom(14, false)/2, GridSizeForZoom(14, true), 1e-12)
	})

	t.Run("floor below zoom 10", func(t *testing.T) {
		assert.InDelta(t, 0.5, GridSizeForZoom(5, false), 1e-12)
	})
}

func TestPartitionMobileBudget(t *testing.T) {
	vp := desktopViewport()
	vp.IsMobile = true
	listings := spread(180, 33.61, -116.39, 0.002)

	result := Partition(listings, vp, DefaultFocusFraction)
	assert.Len(t, result.CenterMarkers, 180,
		"180 listings fit the mobile budget but not the desktop one")
	assert.Empty(t, result.PeripheryClusters)
}
