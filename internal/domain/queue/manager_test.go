package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlsmap/internal/domain/model"
)

// stubStrategy returns a fixed item list and counts invocations.
type stubStrategy struct {
	name  string
	items []model.QueueItem
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) InitializeQueue(ctx context.Context, qc *model.QueueContext) ([]model.QueueItem, error) {
	s.calls++
	return append([]model.QueueItem{}, s.items...), s.err
}

// memorySwipeRepo records journaled events.
type memorySwipeRepo struct {
	mu     sync.Mutex
	events []model.SwipeEvent
}

func (r *memorySwipeRepo) RecordSwipes(ctx context.Context, events []model.SwipeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func scoredItems() []model.QueueItem {
	return []model.QueueItem{
		{ListingKey: "A", Score: 1.2},
		{ListingKey: "B", Score: 120},
		{ListingKey: "C", Score: 260},
		{ListingKey: "D", Score: 430},
		{ListingKey: "E", Score: 700},
	}
}

func initialized(t *testing.T, items []model.QueueItem) *Manager {
	t.Helper()
	m := NewManager(&stubStrategy{name: "Stub", items: items})
	require.NoError(t, m.InitializeQueue(context.Background(), &model.QueueContext{}))
	return m
}

func TestManagerConsumption(t *testing.T) {
	m := initialized(t, scoredItems())

	assert.True(t, m.IsReady())
	assert.False(t, m.IsExhausted())
	assert.Equal(t, 5, m.Len())

	next, ok := m.GetNext()
	require.True(t, ok)
	assert.Equal(t, "A", next.Item.ListingKey)
	assert.Equal(t, 4, m.Len())
}

func TestManagerReasonBuckets(t *testing.T) {
	m := initialized(t, scoredItems())

	expected := []string{
		ReasonExactMatch,
		ReasonSameSubdivision,
		ReasonWithinTwoMiles,
		ReasonWithinFiveMiles,
		ReasonExtended,
	}
	for _, want := range expected {
		next, ok := m.GetNext()
		require.True(t, ok)
		assert.Equal(t, want, next.Reason)
	}

	_, ok := m.GetNext()
	assert.False(t, ok)
	assert.True(t, m.IsExhausted())
}

func TestManagerPeekDoesNotConsume(t *testing.T) {
	m := initialized(t, scoredItems())

	peeked := m.PeekNext(3)
	require.Len(t, peeked, 3)
	assert.Equal(t, "A", peeked[0].ListingKey)

	assert.Equal(t, 5, m.Len())
	next, _ := m.GetNext()
	assert.Equal(t, "A", next.Item.ListingKey)
}

func TestManagerPeekSkipsExcluded(t *testing.T) {
	m := initialized(t, scoredItems())
	m.MarkAsExcluded("A")
	m.MarkAsExcluded("C")

	peeked := m.PeekNext(5)
	require.Len(t, peeked, 3)
	assert.Equal(t, "B", peeked[0].ListingKey)
	assert.Equal(t, "D", peeked[1].ListingKey)
}

func TestManagerExclusionSurvivesReset(t *testing.T) {
	strat := &stubStrategy{name: "Stub", items: scoredItems()}
	m := NewManager(strat)
	require.NoError(t, m.InitializeQueue(context.Background(), &model.QueueContext{}))

	m.MarkAsExcluded("A")
	m.MarkAsExcluded("B")
	m.Reset()

	assert.False(t, m.IsReady())
	assert.Equal(t, 2, m.ExcludedCount())

	// Rebuild: the strategy returns A..E again, but A and B stay dismissed.
	require.NoError(t, m.InitializeQueue(context.Background(), &model.QueueContext{}))
	next, ok := m.GetNext()
	require.True(t, ok)
	assert.Equal(t, "C", next.Item.ListingKey)
}

func TestManagerExclusionIsIdempotent(t *testing.T) {
	m := initialized(t, scoredItems())
	m.MarkAsExcluded("A")
	m.MarkAsExcluded("A")
	assert.Equal(t, 1, m.ExcludedCount())
	assert.Equal(t, 4, m.Len())
}

func TestManagerSetStrategyKeepsExclusions(t *testing.T) {
	m := initialized(t, scoredItems())
	m.MarkAsExcluded("E")

	m.SetStrategy(&stubStrategy{name: "Other", items: scoredItems()})
	assert.False(t, m.IsReady())
	assert.Equal(t, "Other", m.StrategyName())
	assert.Equal(t, 1, m.ExcludedCount())

	require.NoError(t, m.InitializeQueue(context.Background(), &model.QueueContext{}))
	peeked := m.PeekNext(5)
	for _, item := range peeked {
		assert.NotEqual(t, "E", item.ListingKey)
	}
}

func TestManagerEmptyQueueIsExhaustedImmediately(t *testing.T) {
	m := initialized(t, nil)
	assert.True(t, m.IsReady())
	assert.True(t, m.IsExhausted())
	_, ok := m.GetNext()
	assert.False(t, ok)
}

func TestManagerSwipeJournal(t *testing.T) {
	journal := &memorySwipeRepo{}
	m := initialized(t, scoredItems())
	m.WithSwipeJournal(journal)

	m.MarkAsExcluded("B")

	journal.mu.Lock()
	defer journal.mu.Unlock()
	require.Len(t, journal.events, 1)
	assert.Equal(t, "B", journal.events[0].ListingKey)
	assert.Equal(t, model.SwipeDislike, journal.events[0].Action)
	assert.Equal(t, m.SessionID(), journal.events[0].SessionID)
}
