package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/queue"
	"mlsmap/internal/domain/repository"
	"mlsmap/internal/domain/strategy"
)

const (
	queueSessionTTL  = 30 * time.Minute
	maxQueueSessions = 1000
)

// ErrSessionNotFound reports an unknown or expired queue session.
var ErrSessionNotFound = errors.New("queue session not found")

// QueueStateResponse reports one session's consumption state.
type QueueStateResponse struct {
	SessionID     string `json:"sessionId"`
	Strategy      string `json:"strategy"`
	IsReady       bool   `json:"isReady"`
	IsExhausted   bool   `json:"isExhausted"`
	Remaining     int    `json:"remaining"`
	ExcludedCount int    `json:"excludedCount"`
}

// QueueUseCase drives the recommendation queues: strategy selection by
// request source, one-at-a-time consumption, and a per-session exclusion set.
// Each user session owns its own queue manager; sessions are created on
// Initialize and expire after idling out.
type QueueUseCase interface {
	// Initialize builds a queue. An empty or unknown sessionID starts a new
	// session; the returned state carries the ID clients must send back.
	Initialize(ctx context.Context, sessionID string, qc *model.QueueContext) (*QueueStateResponse, error)
	Next(sessionID string) (model.NextItem, bool, error)
	Peek(sessionID string, n int) ([]model.QueueItem, error)
	Exclude(sessionID, listingKey string) error
	Reset(sessionID string) (*QueueStateResponse, error)
	State(sessionID string) (*QueueStateResponse, error)
}

type queueSession struct {
	manager  *queue.Manager
	lastSeen time.Time
}

type queueUseCaseImpl struct {
	mapStrategy          strategy.QueueStrategy
	neighborhoodStrategy strategy.QueueStrategy
	semanticStrategy     strategy.QueueStrategy

	// Optional journal shared by every session's manager; nil disables it.
	swipeRepo repository.SwipeEventsRepository

	mu       sync.Mutex
	sessions map[string]*queueSession
}

func NewQueueUseCase(mapStrat, neighborhood, semantic strategy.QueueStrategy, swipeRepo repository.SwipeEventsRepository) QueueUseCase {
	return &queueUseCaseImpl{
		mapStrategy:          mapStrat,
		neighborhoodStrategy: neighborhood,
		semanticStrategy:     semantic,
		swipeRepo:            swipeRepo,
		sessions:             make(map[string]*queueSession),
	}
}

// Initialize picks the strategy for the request source and builds the queue.
// Map selections use proximity tiers; chat requests use neighborhood scoping.
// Re-initializing an existing session swaps its strategy but keeps its
// exclusion set.
func (u *queueUseCaseImpl) Initialize(ctx context.Context, sessionID string, qc *model.QueueContext) (*QueueStateResponse, error) {
	strat, err := u.strategyFor(qc)
	if err != nil {
		return nil, err
	}

	m := u.lookup(sessionID)
	if m == nil {
		m = u.createSession(strat)
	} else {
		m.SetStrategy(strat)
	}

	if err := m.InitializeQueue(ctx, qc); err != nil {
		return nil, fmt.Errorf("initializing queue: %w", err)
	}
	return stateOf(m), nil
}

func (u *queueUseCaseImpl) strategyFor(qc *model.QueueContext) (strategy.QueueStrategy, error) {
	switch qc.Source {
	case model.QueueSourceMap:
		return u.mapStrategy, nil
	case model.QueueSourceAIChat:
		return u.neighborhoodStrategy, nil
	case "":
		// Legacy clients omit the source; a reference listing implies a map
		// selection.
		if qc.ReferenceListing != nil {
			return u.mapStrategy, nil
		}
		return u.neighborhoodStrategy, nil
	default:
		return nil, fmt.Errorf("unknown queue source %q", qc.Source)
	}
}

func (u *queueUseCaseImpl) Next(sessionID string) (model.NextItem, bool, error) {
	m := u.lookup(sessionID)
	if m == nil {
		return model.NextItem{}, false, ErrSessionNotFound
	}
	next, ok := m.GetNext()
	return next, ok, nil
}

func (u *queueUseCaseImpl) Peek(sessionID string, n int) ([]model.QueueItem, error) {
	m := u.lookup(sessionID)
	if m == nil {
		return nil, ErrSessionNotFound
	}
	return m.PeekNext(n), nil
}

func (u *queueUseCaseImpl) Exclude(sessionID, listingKey string) error {
	m := u.lookup(sessionID)
	if m == nil {
		return ErrSessionNotFound
	}
	m.MarkAsExcluded(listingKey)
	return nil
}

// Reset drops the session's live queue but keeps its exclusion set.
func (u *queueUseCaseImpl) Reset(sessionID string) (*QueueStateResponse, error) {
	m := u.lookup(sessionID)
	if m == nil {
		return nil, ErrSessionNotFound
	}
	m.Reset()
	log.Printf("🃏 queue %s reset (%d exclusions retained)", sessionID, m.ExcludedCount())
	return stateOf(m), nil
}

func (u *queueUseCaseImpl) State(sessionID string) (*QueueStateResponse, error) {
	m := u.lookup(sessionID)
	if m == nil {
		return nil, ErrSessionNotFound
	}
	return stateOf(m), nil
}

// lookup returns the session's manager and refreshes its idle clock, or nil
// for an unknown or expired session.
func (u *queueUseCaseImpl) lookup(sessionID string) *queue.Manager {
	if sessionID == "" {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pruneLocked()
	s, ok := u.sessions[sessionID]
	if !ok {
		return nil
	}
	s.lastSeen = time.Now()
	return s.manager
}

// createSession registers a fresh manager keyed by its own session ID.
func (u *queueUseCaseImpl) createSession(strat strategy.QueueStrategy) *queue.Manager {
	m := queue.NewManager(strat)
	if u.swipeRepo != nil {
		m.WithSwipeJournal(u.swipeRepo)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.pruneLocked()
	u.sessions[m.SessionID()] = &queueSession{manager: m, lastSeen: time.Now()}
	return m
}

// pruneLocked drops idle sessions, then enforces the session cap by evicting
// the longest-idle entries. Caller holds the lock.
func (u *queueUseCaseImpl) pruneLocked() {
	now := time.Now()
	for id, s := range u.sessions {
		if now.Sub(s.lastSeen) > queueSessionTTL {
			delete(u.sessions, id)
		}
	}
	for len(u.sessions) >= maxQueueSessions {
		oldestID := ""
		var oldest time.Time
		for id, s := range u.sessions {
			if oldestID == "" || s.lastSeen.Before(oldest) {
				oldestID, oldest = id, s.lastSeen
			}
		}
		delete(u.sessions, oldestID)
	}
}

func stateOf(m *queue.Manager) *QueueStateResponse {
	return &QueueStateResponse{
		SessionID:     m.SessionID(),
		Strategy:      m.StrategyName(),
		IsReady:       m.IsReady(),
		IsExhausted:   m.IsExhausted(),
		Remaining:     m.Len(),
		ExcludedCount: m.ExcludedCount(),
	}
}
