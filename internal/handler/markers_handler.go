package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mlsmap/internal/application"
	"mlsmap/internal/domain/model"
	"mlsmap/internal/usecase"
)

// MarkersHandler serves the map marker endpoint.
type MarkersHandler struct {
	discoveryUseCase usecase.MapDiscoveryUseCase
}

func NewMarkersHandler(discoveryUseCase usecase.MapDiscoveryUseCase) *MarkersHandler {
	return &MarkersHandler{discoveryUseCase: discoveryUseCase}
}

// markersRequest binds the viewport, filter and load-option query parameters.
type markersRequest struct {
	North    float64 `form:"north" binding:"required"`
	South    float64 `form:"south" binding:"required"`
	East     float64 `form:"east" binding:"required"`
	West     float64 `form:"west" binding:"required"`
	Zoom     int     `form:"zoom" binding:"required"`
	IsMobile bool    `form:"isMobile"`

	Force bool `form:"force"`
	Merge bool `form:"merge"`

	ListingType     string `form:"listingType"`
	MinPrice        string `form:"minPrice"`
	MaxPrice        string `form:"maxPrice"`
	Beds            string `form:"beds"`
	Baths           string `form:"baths"`
	MinSqft         string `form:"minSqft"`
	MaxSqft         string `form:"maxSqft"`
	MinLotSize      string `form:"minLotSize"`
	MaxLotSize      string `form:"maxLotSize"`
	MinYear         string `form:"minYear"`
	MaxYear         string `form:"maxYear"`
	PropertyType    string `form:"propertyType"`
	PropertySubType string `form:"propertySubType"`
	MinGarages      string `form:"minGarages"`
	HOA             string `form:"hoa"`
	LandType        string `form:"landType"`
	City            string `form:"city"`
	Subdivision     string `form:"subdivision"`

	PoolYn          bool `form:"poolYn"`
	SpaYn           bool `form:"spaYn"`
	ViewYn          bool `form:"viewYn"`
	GarageYn        bool `form:"garageYn"`
	AssociationYN   bool `form:"associationYN"`
	GatedCommunity  bool `form:"gatedCommunity"`
	SeniorCommunity bool `form:"seniorCommunity"`
}

// GetMarkers loads and partitions the markers for a viewport.
// GET /api/map/markers
func (h *MarkersHandler) GetMarkers(c *gin.Context) {
	var req markersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	if err := validateViewport(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation error",
			"details": err.Error(),
		})
		return
	}

	vp := model.Viewport{
		North:    req.North,
		South:    req.South,
		East:     req.East,
		West:     req.West,
		Zoom:     req.Zoom,
		IsMobile: req.IsMobile,
	}
	filters := model.MapFilters{
		ListingType:     req.ListingType,
		MinPrice:        req.MinPrice,
		MaxPrice:        req.MaxPrice,
		Beds:            req.Beds,
		Baths:           req.Baths,
		MinSqft:         req.MinSqft,
		MaxSqft:         req.MaxSqft,
		MinLotSize:      req.MinLotSize,
		MaxLotSize:      req.MaxLotSize,
		MinYear:         req.MinYear,
		MaxYear:         req.MaxYear,
		PropertyType:    req.PropertyType,
		PropertySubType: req.PropertySubType,
		MinGarages:      req.MinGarages,
		HOA:             req.HOA,
		LandType:        req.LandType,
		City:            req.City,
		Subdivision:     req.Subdivision,
		PoolYn:          req.PoolYn,
		SpaYn:           req.SpaYn,
		ViewYn:          req.ViewYn,
		GarageYn:        req.GarageYn,
		AssociationYN:   req.AssociationYN,
		GatedCommunity:  req.GatedCommunity,
		SeniorCommunity: req.SeniorCommunity,
	}
	opts := application.LoadOptions{Force: req.Force, Merge: req.Merge}

	response, err := h.discoveryUseCase.GetViewportMarkers(c.Request.Context(), requestSessionID(c), vp, filters, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load viewport markers",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

func validateViewport(req *markersRequest) error {
	if req.North < -90 || req.North > 90 || req.South < -90 || req.South > 90 {
		return &ValidationError{Field: "north/south", Message: "latitude must be between -90 and 90"}
	}
	if req.East < -180 || req.East > 180 || req.West < -180 || req.West > 180 {
		return &ValidationError{Field: "east/west", Message: "longitude must be between -180 and 180"}
	}
	if req.North <= req.South {
		return &ValidationError{Field: "north", Message: "north must be greater than south"}
	}
	if req.East <= req.West {
		return &ValidationError{Field: "east", Message: "east must be greater than west"}
	}
	if req.Zoom < 1 || req.Zoom > 22 {
		return &ValidationError{Field: "zoom", Message: "zoom must be between 1 and 22"}
	}
	return nil
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
