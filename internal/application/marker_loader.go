// Package application hosts the stateful services behind the map surface,
// chiefly the region-cached, cancellation-aware marker loader.
package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
)

// LoaderConfig tunes one loader instance. Zero values fall back to defaults.
type LoaderConfig struct {
	// Freshness is how long a loaded region satisfies coverage checks.
	Freshness time.Duration
	// MaxRegions caps the retained region records, oldest evicted first.
	MaxRegions int
	// CoverageMargin pads stored regions (degrees) during containment checks.
	CoverageMargin float64
	// FetchTimeout bounds a single load; a hardening measure on top of
	// cancellation-on-supersede. Zero means the 30s default.
	FetchTimeout time.Duration
	// StreamZoomThreshold is the zoom level at and above which individual
	// listings are streamed instead of fetching server clusters.
	StreamZoomThreshold int
	// ClusterRevealSize / ClusterRevealDelay reveal moderate cluster sets in
	// small delayed steps for perceived responsiveness. Purely cosmetic;
	// a zero delay publishes everything at once.
	ClusterRevealSize  int
	ClusterRevealDelay time.Duration
}

func (c LoaderConfig) withDefaults() LoaderConfig {
	if c.Freshness == 0 {
		c.Freshness = 5 * time.Minute
	}
	if c.MaxRegions == 0 {
		c.MaxRegions = 10
	}
	if c.CoverageMargin == 0 {
		c.CoverageMargin = 0.001
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.StreamZoomThreshold == 0 {
		c.StreamZoomThreshold = 13
	}
	if c.ClusterRevealSize == 0 {
		c.ClusterRevealSize = 10
	}
	return c
}

// LoadOptions modify a single LoadMarkers call.
type LoadOptions struct {
	// Force bypasses the coverage check.
	Force bool
	// Merge de-duplicates incoming listings against present markers instead
	// of replacing them; used when the user pans to an adjacent area.
	Merge bool
}

// MarkerLoader fetches markers for a viewport+filter combination with a
// freshness-windowed region cache and single-flight discipline: starting a
// new load always cancels a still-running previous one. Constructed per map
// session and torn down with Close.
type MarkerLoader struct {
	repo repository.MarkerRepository
	cfg  LoaderConfig

	mu         sync.Mutex
	regions    *regionCache
	filterHash string
	cancel     context.CancelFunc
	requestID  string
	markers    []model.MapMarker
	total      model.TotalCount
	loading    bool
}

func NewMarkerLoader(repo repository.MarkerRepository, cfg LoaderConfig) *MarkerLoader {
	cfg = cfg.withDefaults()
	return &MarkerLoader{
		repo:    repo,
		cfg:     cfg,
		regions: newRegionCache(cfg.MaxRegions, cfg.Freshness, cfg.CoverageMargin),
	}
}

// Markers returns a snapshot of the current marker set.
func (l *MarkerLoader) Markers() []model.MapMarker {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.MapMarker, len(l.markers))
	copy(out, l.markers)
	return out
}

// TotalCount returns the totals from the most recent successful load.
func (l *MarkerLoader) TotalCount() model.TotalCount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// IsLoading reports whether a fetch is in flight.
func (l *MarkerLoader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Close cancels any in-flight fetch.
func (l *MarkerLoader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// LoadMarkers loads the marker set for a viewport. A changed filter set
// clears the region cache; a covered, fresh viewport skips the network
// entirely unless forced. A superseded load is canceled and its result
// discarded silently. Transport errors are logged and returned with the
// marker state untouched; there is no automatic retry.
func (l *MarkerLoader) LoadMarkers(ctx context.Context, vp model.Viewport, filters model.MapFilters, opts LoadOptions) error {
	reqID := uuid.NewString()

	l.mu.Lock()
	newHash := filters.Hash()
	filtersChanged := newHash != l.filterHash
	if filtersChanged {
		l.regions.Clear()
		l.filterHash = newHash
	}

	if !opts.Force && !filtersChanged && l.regions.Covers(vp, time.Now()) {
		l.mu.Unlock()
		log.Printf("🗺️ load %s: viewport covered at z%d, skipping fetch", reqID[:8], vp.Zoom)
		return nil
	}

	// Single flight: cancel-and-replace atomically.
	if l.cancel != nil {
		l.cancel()
	}
	loadCtx, cancel := context.WithTimeout(ctx, l.cfg.FetchTimeout)
	l.cancel = cancel
	l.requestID = reqID
	l.loading = true
	l.mu.Unlock()

	err := l.fetch(loadCtx, reqID, vp, filters, opts)

	l.mu.Lock()
	current := l.requestID == reqID
	if current {
		l.loading = false
		if err == nil {
			l.regions.Record(vp, time.Now())
		}
	}
	l.mu.Unlock()
	cancel()

	if errors.Is(err, context.Canceled) {
		// Superseded by a newer load; not an error.
		return nil
	}
	if err != nil {
		log.Printf("❌ load %s failed: %v", reqID[:8], err)
		return err
	}
	return nil
}

// fetch picks the transport by density: streamed individual listings at high
// zoom, pre-aggregated clusters otherwise.
func (l *MarkerLoader) fetch(ctx context.Context, reqID string, vp model.Viewport, filters model.MapFilters, opts LoadOptions) error {
	q := repository.BoundsQuery{Viewport: vp, Filters: filters}
	if vp.Zoom >= l.cfg.StreamZoomThreshold {
		return l.consumeStream(ctx, reqID, q, opts)
	}
	return l.fetchClusters(ctx, reqID, q, opts)
}

// consumeStream ingests listing batches as they decode. The first batch
// replaces the marker set so stale markers disappear as soon as fresh data
// arrives; later batches append. With Merge, incoming listings are
// de-duplicated against present markers instead of replacing them.
func (l *MarkerLoader) consumeStream(ctx context.Context, reqID string, q repository.BoundsQuery, opts LoadOptions) error {
	events, err := l.repo.StreamListings(ctx, q)
	if err != nil {
		return fmt.Errorf("opening listing stream: %w", err)
	}

	first := true
	for batch := range events {
		if batch.Err != nil {
			return fmt.Errorf("listing stream: %w", batch.Err)
		}
		if batch.Total != nil {
			l.publishTotal(reqID, *batch.Total)
		}
		if len(batch.Listings) == 0 {
			continue
		}

		markers := make([]model.MapMarker, 0, len(batch.Listings))
		for i := range batch.Listings {
			markers = append(markers, model.MapMarker{Listing: &batch.Listings[i]})
		}
		replace := first && !opts.Merge
		l.publishMarkers(reqID, markers, replace, opts.Merge)
		first = false
	}

	// A stream that completes without a single batch means the viewport is
	// genuinely empty; clear the previous region's markers rather than
	// leaving them on screen. Merge loads keep what is already there.
	if first && !opts.Merge && ctx.Err() == nil {
		l.publishMarkers(reqID, nil, true, false)
	}
	return ctx.Err()
}

// fetchClusters loads the single-response cluster payload and publishes it,
// optionally revealing moderate cluster sets in small delayed steps.
func (l *MarkerLoader) fetchClusters(ctx context.Context, reqID string, q repository.BoundsQuery, opts LoadOptions) error {
	page, err := l.repo.FetchClusters(ctx, q)
	if err != nil {
		return fmt.Errorf("fetching clusters: %w", err)
	}

	l.publishTotal(reqID, page.Total)

	markers := make([]model.MapMarker, 0, len(page.Clusters)+len(page.Listings))
	for i := range page.Clusters {
		markers = append(markers, model.MapMarker{Cluster: &page.Clusters[i]})
	}
	for i := range page.Listings {
		markers = append(markers, model.MapMarker{Listing: &page.Listings[i]})
	}

	if l.cfg.ClusterRevealDelay <= 0 || len(markers) <= l.cfg.ClusterRevealSize {
		l.publishMarkers(reqID, markers, !opts.Merge, opts.Merge)
		return nil
	}

	replace := !opts.Merge
	for start := 0; start < len(markers); start += l.cfg.ClusterRevealSize {
		end := start + l.cfg.ClusterRevealSize
		if end > len(markers) {
			end = len(markers)
		}
		l.publishMarkers(reqID, markers[start:end], replace, opts.Merge)
		replace = false

		if end < len(markers) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.cfg.ClusterRevealDelay):
			}
		}
	}
	return nil
}

// publishMarkers applies one batch to the observable marker set, ignoring
// publishes from superseded requests.
func (l *MarkerLoader) publishMarkers(reqID string, batch []model.MapMarker, replace, dedupe bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.requestID != reqID {
		return
	}

	if replace {
		l.markers = append([]model.MapMarker(nil), batch...)
		return
	}
	if dedupe {
		present := make(map[string]struct{}, len(l.markers))
		for _, m := range l.markers {
			present[m.Key()] = struct{}{}
		}
		for _, m := range batch {
			if _, ok := present[m.Key()]; ok {
				continue
			}
			l.markers = append(l.markers, m)
		}
		return
	}
	l.markers = append(l.markers, batch...)
}

func (l *MarkerLoader) publishTotal(reqID string, total model.TotalCount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.requestID != reqID {
		return
	}
	l.total = total
}
