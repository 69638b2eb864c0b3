package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mlsmap/internal/application"
	"mlsmap/internal/domain/cluster"
	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
)

const (
	loaderSessionTTL  = 30 * time.Minute
	maxLoaderSessions = 1000
)

// MapMarkersResponse is the render-ready view of a loaded viewport: center
// markers and periphery clusters computed client-side from streamed listings,
// plus any pre-aggregated server clusters from low-zoom loads.
type MapMarkersResponse struct {
	SessionID         string                `json:"sessionId"`
	CenterMarkers     []model.Listing       `json:"centerMarkers"`
	PeripheryClusters []model.Cluster       `json:"peripheryClusters"`
	ServerClusters    []model.ServerCluster `json:"serverClusters"`
	FocusCircle       model.FocusCircle     `json:"focusCircle"`
	TotalCount        model.TotalCount      `json:"totalCount"`
	IsLoading         bool                  `json:"isLoading"`
}

// MapDiscoveryUseCase loads a viewport's markers and partitions them for
// rendering. Each map session owns its own loader, so one client's pan never
// cancels or clobbers another's; sessions are created on first use and expire
// after idling out.
type MapDiscoveryUseCase interface {
	// GetViewportMarkers loads the viewport (subject to the session's
	// region-cache coverage) and returns the partitioned marker set. An empty
	// sessionID starts a new session; the response carries the ID clients
	// must send back.
	GetViewportMarkers(ctx context.Context, sessionID string, vp model.Viewport, filters model.MapFilters, opts application.LoadOptions) (*MapMarkersResponse, error)

	// Close cancels every session's in-flight fetch.
	Close()
}

type loaderSession struct {
	loader   *application.MarkerLoader
	lastSeen time.Time
}

type mapDiscoveryUseCaseImpl struct {
	repo repository.MarkerRepository
	cfg  application.LoaderConfig

	mu       sync.Mutex
	sessions map[string]*loaderSession
}

func NewMapDiscoveryUseCase(repo repository.MarkerRepository, cfg application.LoaderConfig) MapDiscoveryUseCase {
	return &mapDiscoveryUseCaseImpl{
		repo:     repo,
		cfg:      cfg,
		sessions: make(map[string]*loaderSession),
	}
}

// GetViewportMarkers runs the load on the session's loader, then splits the
// resulting marker set: individual listings go through the focus/periphery
// partition, server clusters pass through untouched.
func (u *mapDiscoveryUseCaseImpl) GetViewportMarkers(ctx context.Context, sessionID string, vp model.Viewport, filters model.MapFilters, opts application.LoadOptions) (*MapMarkersResponse, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	loader := u.loaderFor(sessionID)

	if err := loader.LoadMarkers(ctx, vp, filters, opts); err != nil {
		return nil, fmt.Errorf("loading viewport markers: %w", err)
	}

	markers := loader.Markers()
	listings := make([]model.Listing, 0, len(markers))
	serverClusters := make([]model.ServerCluster, 0)
	for _, m := range markers {
		if m.IsCluster() {
			serverClusters = append(serverClusters, *m.Cluster)
			continue
		}
		if m.Listing != nil {
			listings = append(listings, *m.Listing)
		}
	}

	result := cluster.Partition(listings, vp, cluster.DefaultFocusFraction)

	return &MapMarkersResponse{
		SessionID:         sessionID,
		CenterMarkers:     result.CenterMarkers,
		PeripheryClusters: result.PeripheryClusters,
		ServerClusters:    serverClusters,
		FocusCircle:       result.FocusCircle,
		TotalCount:        loader.TotalCount(),
		IsLoading:         loader.IsLoading(),
	}, nil
}

// Close tears down every session's loader.
func (u *mapDiscoveryUseCaseImpl) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for id, s := range u.sessions {
		s.loader.Close()
		delete(u.sessions, id)
	}
}

// loaderFor returns the session's loader, creating it on first use and
// refreshing its idle clock.
func (u *mapDiscoveryUseCaseImpl) loaderFor(sessionID string) *application.MarkerLoader {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pruneLocked()

	s, ok := u.sessions[sessionID]
	if !ok {
		s = &loaderSession{loader: application.NewMarkerLoader(u.repo, u.cfg)}
		u.sessions[sessionID] = s
	}
	s.lastSeen = time.Now()
	return s.loader
}

// pruneLocked closes and drops idle sessions, then enforces the session cap
// by evicting the longest-idle entries. Caller holds the lock.
func (u *mapDiscoveryUseCaseImpl) pruneLocked() {
	now := time.Now()
	for id, s := range u.sessions {
		if now.Sub(s.lastSeen) > loaderSessionTTL {
			s.loader.Close()
			delete(u.sessions, id)
		}
	}
	for len(u.sessions) >= maxLoaderSessions {
		oldestID := ""
		var oldest time.Time
		for id, s := range u.sessions {
			if oldestID == "" || s.lastSeen.Before(oldest) {
				oldestID, oldest = id, s.lastSeen
			}
		}
		u.sessions[oldestID].loader.Close()
		delete(u.sessions, oldestID)
	}
}
