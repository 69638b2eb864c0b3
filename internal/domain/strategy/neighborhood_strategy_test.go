package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlsmap/internal/domain/model"
)

func subdivisionListings() []model.Listing {
	return []model.Listing{
		{ListingKey: "MID", ListPrice: 550_000, SubdivisionName: "Sunrise Estates", City: "Indio"},
		{ListingKey: "TOP", ListPrice: 890_000, SubdivisionName: "Sunrise Estates", City: "Indio"},
		{ListingKey: "LOW", ListPrice: 410_000, SubdivisionName: "Sunrise Estates", City: "Indio"},
	}
}

func TestNeighborhoodOrdersByPriceDescending(t *testing.T) {
	repo := &fakeListingsRepo{neighborhood: subdivisionListings(), neighborhoodTotal: 3}
	s := NewNeighborhoodStrategy(repo)

	items, err := s.InitializeQueue(context.Background(), &model.QueueContext{
		ReferenceListing: indioReference(),
		Source:           model.QueueSourceAIChat,
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "TOP", items[0].ListingKey)
	assert.Equal(t, "MID", items[1].ListingKey)
	assert.Equal(t, "LOW", items[2].ListingKey)

	// Scores carry the raw price, never a negated one.
	assert.Equal(t, 890_000.0, items[0].Score)
}

func TestNeighborhoodResolution(t *testing.T) {
	t.Run("structured query metadata wins", func(t *testing.T) {
		repo := &fakeListingsRepo{neighborhood: subdivisionListings(), neighborhoodTotal: 3}
		s := NewNeighborhoodStrategy(repo)

		_, err := s.InitializeQueue(context.Background(), &model.QueueContext{
			ReferenceListing: indioReference(),
			Source:           model.QueueSourceAIChat,
			Query:            `{"neighborhoodType":"city","neighborhoodId":"la-quinta","filters":{"minPrice":500000}}`,
		})
		require.NoError(t, err)
		assert.Equal(t, "city/la-quinta", repo.lastNeighborhood)
	})

	t.Run("falls back to the reference subdivision slug", func(t *testing.T) {
		repo := &fakeListingsRepo{neighborhood: subdivisionListings(), neighborhoodTotal: 3}
		s := NewNeighborhoodStrategy(repo)

		_, err := s.InitializeQueue(context.Background(), &model.QueueContext{
			ReferenceListing: indioReference(),
			Source:           model.QueueSourceAIChat,
			Query:            "show me more like this one",
		})
		require.NoError(t, err)
		assert.Equal(t, "subdivision/sunrise-estates", repo.lastNeighborhood)
	})

	t.Run("then to the reference city slug", func(t *testing.T) {
		repo := &fakeListingsRepo{neighborhood: nil, neighborhoodTotal: 0}
		s := NewNeighborhoodStrategy(repo)

		ref := indioReference()
		ref.SubdivisionName = ""
		_, err := s.InitializeQueue(context.Background(), &model.QueueContext{
			ReferenceListing: ref,
			Source:           model.QueueSourceAIChat,
		})
		require.NoError(t, err)
		assert.Equal(t, "city/indio", repo.lastNeighborhood)
	})

	t.Run("nothing to resolve yields an empty queue, not an error", func(t *testing.T) {
		repo := &fakeListingsRepo{}
		s := NewNeighborhoodStrategy(repo)

		items, err := s.InitializeQueue(context.Background(), &model.QueueContext{
			Source: model.QueueSourceAIChat,
			Query:  "somewhere sunny",
		})
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Empty(t, repo.lastNeighborhood, "no repository call without a resolved neighborhood")
	})
}

func TestNeighborhoodExcludesReferenceAndCoOwnership(t *testing.T) {
	ref := indioReference()
	listings := append(subdivisionListings(),
		*ref,
		model.Listing{ListingKey: "CO", ListPrice: 700_000, PropertySubType: "Co-Ownership Share", SubdivisionName: "Sunrise Estates"},
	)
	repo := &fakeListingsRepo{neighborhood: listings, neighborhoodTotal: len(listings)}
	s := NewNeighborhoodStrategy(repo)

	items, err := s.InitializeQueue(context.Background(), &model.QueueContext{
		ReferenceListing: ref,
		Source:           model.QueueSourceAIChat,
	})
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.NotEqual(t, ref.ListingKey, item.ListingKey)
		assert.NotEqual(t, "CO", item.ListingKey)
	}
}
