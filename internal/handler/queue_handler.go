package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mlsmap/internal/domain/model"
	"mlsmap/internal/usecase"
)

const defaultPeekSize = 3

// QueueHandler serves the recommendation queue endpoints. The queue session
// is identified per request via requestSessionID.
type QueueHandler struct {
	queueUseCase usecase.QueueUseCase
}

func NewQueueHandler(queueUseCase usecase.QueueUseCase) *QueueHandler {
	return &QueueHandler{queueUseCase: queueUseCase}
}

// initializeRequest is the queue initialization payload.
type initializeRequest struct {
	ReferenceListing *model.Listing `json:"referenceListing"`
	Source           string         `json:"source"`
	Query            string         `json:"query"`
}

// PostInitialize builds a fresh queue for a reference listing or chat query.
// Without a session ID a new session starts; its ID comes back in the state.
// POST /api/queue/initialize
func (h *QueueHandler) PostInitialize(c *gin.Context) {
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.validateInitialize(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation error",
			"details": err.Error(),
		})
		return
	}

	state, err := h.queueUseCase.Initialize(c.Request.Context(), requestSessionID(c), &model.QueueContext{
		ReferenceListing: req.ReferenceListing,
		Source:           req.Source,
		Query:            req.Query,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to initialize queue",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *QueueHandler) validateInitialize(req *initializeRequest) error {
	switch req.Source {
	case "", model.QueueSourceMap, model.QueueSourceAIChat:
	default:
		return &ValidationError{Field: "source", Message: "source must be 'map' or 'ai_chat'"}
	}
	if req.Source == model.QueueSourceMap && req.ReferenceListing == nil {
		return &ValidationError{Field: "referenceListing", Message: "map queues require a reference listing"}
	}
	if ref := req.ReferenceListing; ref != nil {
		if ref.ListingKey == "" {
			return &ValidationError{Field: "referenceListing.listingKey", Message: "listing key is required"}
		}
		if ref.Latitude < -90 || ref.Latitude > 90 {
			return &ValidationError{Field: "referenceListing.latitude", Message: "latitude must be between -90 and 90"}
		}
		if ref.Longitude < -180 || ref.Longitude > 180 {
			return &ValidationError{Field: "referenceListing.longitude", Message: "longitude must be between -180 and 180"}
		}
	}
	return nil
}

// sessionNotFound writes the 404 for an unknown or expired session and
// reports whether it handled the error.
func sessionNotFound(c *gin.Context, err error) bool {
	if !errors.Is(err, usecase.ErrSessionNotFound) {
		return false
	}
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "unknown queue session",
		"details": "initialize a queue first and send its sessionId back",
	})
	return true
}

// GetNext pops the next recommendation.
// GET /api/queue/next
func (h *QueueHandler) GetNext(c *gin.Context) {
	next, ok, err := h.queueUseCase.Next(requestSessionID(c))
	if err != nil {
		if sessionNotFound(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to pop queue", "details": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"exhausted": true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"exhausted": false,
		"item":      next.Item,
		"reason":    next.Reason,
	})
}

// GetPeek previews upcoming recommendations without consuming them.
// GET /api/queue/peek?n=3
func (h *QueueHandler) GetPeek(c *gin.Context) {
	n := defaultPeekSize
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 20 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation error",
				"details": "n must be an integer between 1 and 20",
			})
			return
		}
		n = parsed
	}

	items, err := h.queueUseCase.Peek(requestSessionID(c), n)
	if err != nil {
		if sessionNotFound(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to peek queue", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
	})
}

// excludeRequest is the exclusion payload.
type excludeRequest struct {
	ListingKey string `json:"listingKey"`
}

// PostExclude marks a listing as dismissed for the rest of the session.
// POST /api/queue/exclude
func (h *QueueHandler) PostExclude(c *gin.Context) {
	var req excludeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.ListingKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation error",
			"details": "listingKey is required",
		})
		return
	}

	if err := h.queueUseCase.Exclude(requestSessionID(c), req.ListingKey); err != nil {
		if sessionNotFound(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to exclude listing", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"excluded": req.ListingKey})
}

// PostReset clears the live queue while keeping the exclusion set.
// POST /api/queue/reset
func (h *QueueHandler) PostReset(c *gin.Context) {
	state, err := h.queueUseCase.Reset(requestSessionID(c))
	if err != nil {
		if sessionNotFound(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset queue", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetState reports the queue's consumption state.
// GET /api/queue/state
func (h *QueueHandler) GetState(c *gin.Context) {
	state, err := h.queueUseCase.State(requestSessionID(c))
	if err != nil {
		if sessionNotFound(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read queue state", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}
