package model

// Queue sources select the recommendation strategy.
const (
	QueueSourceMap    = "map"
	QueueSourceAIChat = "ai_chat"
)

// Neighborhood types for neighborhood-scoped queues.
const (
	NeighborhoodSubdivision = "subdivision"
	NeighborhoodCity        = "city"
)

// QueueContext is everything a strategy needs to build a queue: the listing
// the user acted on, where the request came from, and the optional free-form
// or structured query from the chat layer.
type QueueContext struct {
	ReferenceListing *Listing `json:"referenceListing,omitempty"`
	Source           string   `json:"source"`
	Query            string   `json:"query,omitempty"`
}

// QueueItem is the card-sized projection of a listing plus its strategy
// score. Lower scores are shown sooner under proximity strategies;
// neighborhood strategies carry the raw price here.
type QueueItem struct {
	ListingKey      string  `json:"listingKey"`
	Slug            string  `json:"slug"`
	SlugAddress     string  `json:"slugAddress"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ListPrice       float64 `json:"listPrice"`
	City            string  `json:"city"`
	SubdivisionName string  `json:"subdivisionName"`
	PropertyType    string  `json:"propertyType"`
	PropertySubType string  `json:"propertySubType"`
	PostalCode      string  `json:"postalCode"`
	Score           float64 `json:"score"`
}

// NewQueueItem projects a listing into a scored queue item.
func NewQueueItem(l *Listing, score float64) QueueItem {
	return QueueItem{
		ListingKey:      l.ListingKey,
		Slug:            l.Slug,
		SlugAddress:     l.SlugAddress,
		Latitude:        l.Latitude,
		Longitude:       l.Longitude,
		ListPrice:       l.ListPrice,
		City:            l.City,
		SubdivisionName: l.SubdivisionName,
		PropertyType:    l.PropertyType,
		PropertySubType: l.PropertySubType,
		PostalCode:      l.PostalCode,
		Score:           score,
	}
}

// NextItem pairs a popped queue item with its human-readable reason bucket.
type NextItem struct {
	Item   QueueItem `json:"item"`
	Reason string    `json:"reason"`
}

// Swipe actions reported by the card UI.
const (
	SwipeLike    = "like"
	SwipeDislike = "dislike"
)

// SwipeEvent journals one swipe decision.
type SwipeEvent struct {
	SessionID  string `json:"sessionId" firestore:"session_id"`
	ListingKey string `json:"listingKey" firestore:"listing_key"`
	Action     string `json:"action" firestore:"action"`
	SwipedAt   int64  `json:"swipedAt" firestore:"swiped_at"`
}
