// Package queue holds the one-at-a-time consumption state machine over a
// strategy-built recommendation list.
package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
	"mlsmap/internal/domain/strategy"
)

// Reason buckets derived from score ranges, for the card UI's "why this one"
// label.
const (
	ReasonExactMatch      = "exact match"
	ReasonSameSubdivision = "same subdivision"
	ReasonWithinTwoMiles  = "within 2 miles"
	ReasonWithinFiveMiles = "within 5 miles"
	ReasonExtended        = "extended"
)

// Manager serves queue items one at a time with an exclusion set that
// survives Reset. It is built for a single user session but guards its state
// with a mutex so concurrent UI surfaces sharing one queue stay safe.
type Manager struct {
	mu sync.Mutex

	sessionID   string
	active      strategy.QueueStrategy
	items       []model.QueueItem
	excluded    map[string]struct{}
	isReady     bool
	isExhausted bool

	// Optional journal for swipe decisions; nil disables journaling.
	swipeRepo repository.SwipeEventsRepository
}

func NewManager(initial strategy.QueueStrategy) *Manager {
	return &Manager{
		sessionID: uuid.NewString(),
		active:    initial,
		excluded:  make(map[string]struct{}),
	}
}

// WithSwipeJournal attaches a swipe-event journal. Journal failures are
// logged and never surface to callers.
func (m *Manager) WithSwipeJournal(repo repository.SwipeEventsRepository) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swipeRepo = repo
	return m
}

// SetStrategy swaps the active strategy. The current list and readiness are
// dropped; the exclusion set is kept.
func (m *Manager) SetStrategy(s strategy.QueueStrategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = s
	m.items = nil
	m.isReady = false
	m.isExhausted = false
}

// SessionID identifies this queue session in journals and logs.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// StrategyName reports the active strategy's name, empty when none is set.
func (m *Manager) StrategyName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.Name()
}

// InitializeQueue delegates to the active strategy and stores the resulting
// ordered list.
func (m *Manager) InitializeQueue(ctx context.Context, qc *model.QueueContext) error {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()

	if active == nil {
		return fmt.Errorf("no active strategy")
	}

	items, err := active.InitializeQueue(ctx, qc)
	if err != nil {
		return fmt.Errorf("strategy %s: %w", active.Name(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	m.isReady = true
	m.isExhausted = len(items) == 0
	log.Printf("🃏 queue %s initialized via %s: %d items, %d excluded",
		m.sessionID, active.Name(), len(items), len(m.excluded))
	return nil
}

// GetNext pops the highest-priority item not yet excluded, along with its
// reason bucket. Returns false once nothing valid remains, after which
// IsExhausted reports true.
func (m *Manager) GetNext() (model.NextItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dropExcludedLocked()
	if len(m.items) == 0 {
		m.isExhausted = true
		return model.NextItem{}, false
	}

	item := m.items[0]
	m.items = m.items[1:]
	if len(m.items) == 0 {
		m.isExhausted = true
	}
	return model.NextItem{Item: item, Reason: reasonForScore(item.Score)}, true
}

// PeekNext returns up to n upcoming valid items without mutating state.
func (m *Manager) PeekNext(n int) []model.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.QueueItem, 0, n)
	for _, item := range m.items {
		if len(out) == n {
			break
		}
		if _, skip := m.excluded[item.ListingKey]; skip {
			continue
		}
		out = append(out, item)
	}
	return out
}

// MarkAsExcluded adds a listing key to the exclusion set. Idempotent; the set
// survives Reset so dismissed listings never resurface within the session.
func (m *Manager) MarkAsExcluded(key string) {
	m.mu.Lock()
	m.excluded[key] = struct{}{}
	repo := m.swipeRepo
	sessionID := m.sessionID
	m.mu.Unlock()

	if repo == nil {
		return
	}
	event := model.SwipeEvent{
		SessionID:  sessionID,
		ListingKey: key,
		Action:     model.SwipeDislike,
		SwipedAt:   time.Now().Unix(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.RecordSwipes(ctx, []model.SwipeEvent{event}); err != nil {
		log.Printf("⚠️ swipe journal write failed for %s: %v", key, err)
	}
}

// Reset clears the live list and readiness flags but keeps the exclusion set.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	m.isReady = false
	m.isExhausted = false
}

// IsReady reports whether InitializeQueue has completed successfully.
func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isReady
}

// IsExhausted reports whether no valid items remain.
func (m *Manager) IsExhausted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isExhausted
}

// Len returns the count of remaining valid (non-excluded) items.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, item := range m.items {
		if _, skip := m.excluded[item.ListingKey]; !skip {
			n++
		}
	}
	return n
}

// ExcludedCount returns the size of the exclusion set.
func (m *Manager) ExcludedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.excluded)
}

// dropExcludedLocked removes excluded items from the head of the list so the
// next pop is valid. Caller holds the lock.
func (m *Manager) dropExcludedLocked() {
	valid := m.items[:0]
	for _, item := range m.items {
		if _, skip := m.excluded[item.ListingKey]; skip {
			continue
		}
		valid = append(valid, item)
	}
	m.items = valid
}

// reasonForScore maps a score to its coarse tier bucket. Neighborhood queues
// carry raw prices as scores, which land in the extended bucket.
func reasonForScore(score float64) string {
	switch {
	case score < 50:
		return ReasonExactMatch
	case score < 200:
		return ReasonSameSubdivision
	case score < 300:
		return ReasonWithinTwoMiles
	case score < 500:
		return ReasonWithinFiveMiles
	default:
		return ReasonExtended
	}
}
