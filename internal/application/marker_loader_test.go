package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
)

// fakeMarkerRepo replays scripted stream batches and cluster pages.
type fakeMarkerRepo struct {
	mu           sync.Mutex
	streamCalls  int
	clusterCalls int

	batches []repository.ListingBatch
	page    *repository.ClusterPage

	// blockUntilCancel makes StreamListings hang until its context dies,
	// simulating a slow fetch that gets superseded.
	blockUntilCancel bool
}

func (f *fakeMarkerRepo) StreamListings(ctx context.Context, q repository.BoundsQuery) (<-chan repository.ListingBatch, error) {
	f.mu.Lock()
	f.streamCalls++
	batches := f.batches
	block := f.blockUntilCancel
	f.mu.Unlock()

	events := make(chan repository.ListingBatch)
	go func() {
		defer close(events)
		if block {
			<-ctx.Done()
			return
		}
		for _, b := range batches {
			select {
			case events <- b:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (f *fakeMarkerRepo) FetchClusters(ctx context.Context, q repository.BoundsQuery) (*repository.ClusterPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clusterCalls++
	return f.page, nil
}

func (f *fakeMarkerRepo) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamCalls, f.clusterCalls
}

func streamViewport() model.Viewport {
	return model.Viewport{North: 33.70, South: 33.60, East: -116.20, West: -116.35, Zoom: 14}
}

func clusterViewport() model.Viewport {
	return model.Viewport{North: 34.2, South: 33.2, East: -115.5, West: -117.0, Zoom: 10}
}

func listings(keys ...string) []model.Listing {
	out := make([]model.Listing, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.Listing{ListingKey: k, Latitude: 33.65, Longitude: -116.25})
	}
	return out
}

func markerKeys(markers []model.MapMarker) []string {
	keys := make([]string, 0, len(markers))
	for _, m := range markers {
		keys = append(keys, m.Key())
	}
	return keys
}

func TestLoadMarkersStreaming(t *testing.T) {
	repo := &fakeMarkerRepo{
		batches: []repository.ListingBatch{
			{Total: &model.TotalCount{GPS: 2, CRMLS: 1, Total: 3}},
			{Listings: listings("A", "B")},
			{Listings: listings("C")},
		},
	}
	loader := NewMarkerLoader(repo, LoaderConfig{})
	defer loader.Close()

	err := loader.LoadMarkers(context.Background(), streamViewport(), model.MapFilters{}, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, markerKeys(loader.Markers()))
	assert.Equal(t, 3, loader.TotalCount().Total)
	assert.False(t, loader.IsLoading())
}

func TestLoadMarkersCoverageSkipsRefetch(t *testing.T) {
	repo := &fakeMarkerRepo{batches: []repository.ListingBatch{{Listings: listings("A")}}}
	loader := NewMarkerLoader(repo, LoaderConfig{})
	defer loader.Close()

	vp := streamViewport()
	require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{}))
	require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{}))

	streams, _ := repo.calls()
	assert.Equal(t, 1, streams, "covered viewport must not refetch")
}

func TestLoadMarkersForceBypassesCoverage(t *testing.T) {
	repo := &fakeMarkerRepo{batches: []repository.ListingBatch{{Listings: listings("A")}}}
	loader := NewMarkerLoader(repo, LoaderConfig{})
	defer loader.Close()

	vp := streamViewport()
	require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{}))
	require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{Force: true}))

	streams, _ := repo.calls()
	assert.Equal(t, 2, streams)
}

func TestLoadMarkersFilterChangeInvalidatesCoverage(t *testing.T) {
	repo := &fakeMarkerRepo{batches: []repository.ListingBatch{{Listings: listings("A")}}}
	loader := NewMarkerLoader(repo, LoaderConfig{})
	defer loader.Close()

	vp := streamViewport()
	require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{}))
	require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{MinPrice: "500000"}, LoadOptions{}))

	streams, _ := repo.calls()
	assert.Equal(t, 2, streams, "changed filters must clear coverage and refetch")
}

func TestLoadMarkersReplaceVsMerge(t *testing.T) {
	t.Run("default load replaces the previous set", func(t *testing.T) {
		repo := &fakeMarkerRepo{batches: []repository.ListingBatch{{Listings: listings("A", "B")}}}
		loader := NewMarkerLoader(repo, LoaderConfig{})
		defer loader.Close()

		vp := streamViewport()
		require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{}))

		repo.mu.Lock()
		repo.batches = []repository.ListingBatch{{Listings: listings("C")}}
		repo.mu.Unlock()

		vp2 := vp
		vp2.North += 1.0
		vp2.South += 1.0
		require.NoError(t, loader.LoadMarkers(context.Background(), vp2, model.MapFilters{}, LoadOptions{}))

		assert.Equal(t, []string{"C"}, markerKeys(loader.Markers()))
	})

	t.Run("merge de-duplicates against present markers", func(t *testing.T) {
		repo := &fakeMarkerRepo{batches: []repository.ListingBatch{{Listings: listings("A", "B")}}}
		loader := NewMarkerLoader(repo, LoaderConfig{})
		defer loader.Close()

		vp := streamViewport()
		require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{}))

		repo.mu.Lock()
		repo.batches = []repository.ListingBatch{{Listings: listings("B", "C")}}
		repo.mu.Unlock()

		vp2 := vp
		vp2.East += 0.5
		vp2.West += 0.5
		require.NoError(t, loader.LoadMarkers(context.Background(), vp2, model.MapFilters{}, LoadOptions{Merge: true}))

		assert.Equal(t, []string{"A", "B", "C"}, markerKeys(loader.Markers()))
	})
}

func TestLoadMarkersEmptyStream(t *testing.T) {
	t.Run("an empty viewport clears the previous markers", func(t *testing.T) {
		repo := &fakeMarkerRepo{batches: []repository.ListingBatch{{Listings: listings("A")}}}
		loader := NewMarkerLoader(repo, LoaderConfig{})
		defer loader.Close()

		vp := streamViewport()
		require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{}))
		require.Len(t, loader.Markers(), 1)

		repo.mu.Lock()
		repo.batches = nil
		repo.mu.Unlock()

		vp2 := vp
		vp2.North += 1.0
		vp2.South += 1.0
		require.NoError(t, loader.LoadMarkers(context.Background(), vp2, model.MapFilters{}, LoadOptions{}))

		assert.Empty(t, loader.Markers())
	})

	t.Run("an empty merge load keeps the present markers", func(t *testing.T) {
		repo := &fakeMarkerRepo{batches: []repository.ListingBatch{{Listings: listings("A")}}}
		loader := NewMarkerLoader(repo, LoaderConfig{})
		defer loader.Close()

		vp := streamViewport()
		require.NoError(t, loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{}))

		repo.mu.Lock()
		repo.batches = nil
		repo.mu.Unlock()

		vp2 := vp
		vp2.East += 0.5
		vp2.West += 0.5
		require.NoError(t, loader.LoadMarkers(context.Background(), vp2, model.MapFilters{}, LoadOptions{Merge: true}))

		assert.Equal(t, []string{"A"}, markerKeys(loader.Markers()))
	})
}

func TestLoadMarkersSupersededLoadIsSilent(t *testing.T) {
	repo := &fakeMarkerRepo{blockUntilCancel: true}
	loader := NewMarkerLoader(repo, LoaderConfig{})
	defer loader.Close()

	vp := streamViewport()
	var wg sync.WaitGroup
	wg.Add(1)
	firstErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		firstErr <- loader.LoadMarkers(context.Background(), vp, model.MapFilters{}, LoadOptions{})
	}()

	// Wait for the first load to be in flight, then supersede it.
	require.Eventually(t, loader.IsLoading, time.Second, 5*time.Millisecond)

	repo.mu.Lock()
	repo.blockUntilCancel = false
	repo.batches = []repository.ListingBatch{{Listings: listings("NEW")}}
	repo.mu.Unlock()

	vp2 := vp
	vp2.North += 1.0
	vp2.South += 1.0
	require.NoError(t, loader.LoadMarkers(context.Background(), vp2, model.MapFilters{}, LoadOptions{}))

	wg.Wait()
	assert.NoError(t, <-firstErr, "a canceled load reports success, not an error")
	assert.Equal(t, []string{"NEW"}, markerKeys(loader.Markers()),
		"the superseded load must not clobber the newer result")
}

func TestLoadMarkersClusterPath(t *testing.T) {
	repo := &fakeMarkerRepo{
		page: &repository.ClusterPage{
			Clusters: []model.ServerCluster{{ID: 7, Count: 42}},
			Listings: listings("X"),
			Total:    model.TotalCount{Total: 43},
		},
	}
	loader := NewMarkerLoader(repo, LoaderConfig{})
	defer loader.Close()

	err := loader.LoadMarkers(context.Background(), clusterViewport(), model.MapFilters{}, LoadOptions{})
	require.NoError(t, err)

	_, clusterCalls := repo.calls()
	assert.Equal(t, 1, clusterCalls, "below the stream threshold the cluster endpoint serves the load")
	assert.Equal(t, []string{"cluster:7", "X"}, markerKeys(loader.Markers()))
	assert.Equal(t, 43, loader.TotalCount().Total)
}

func TestLoadMarkersClusterReveal(t *testing.T) {
	many := make([]model.ServerCluster, 25)
	for i := range many {
		many[i] = model.ServerCluster{ID: int64(i), Count: i + 1}
	}
	repo := &fakeMarkerRepo{page: &repository.ClusterPage{Clusters: many}}
	loader := NewMarkerLoader(repo, LoaderConfig{
		ClusterRevealSize:  10,
		ClusterRevealDelay: time.Millisecond,
	})
	defer loader.Close()

	err := loader.LoadMarkers(context.Background(), clusterViewport(), model.MapFilters{}, LoadOptions{})
	require.NoError(t, err)
	assert.Len(t, loader.Markers(), 25, "all reveal chunks publish by completion")
}
