package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unistay-housing/service-booking/internal/application"
	"github.com/unistay-housing/service-booking/pkg/response"
)

// ListingHandler serves the read-only listing directory.
type ListingHandler struct {
	service *application.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service *application.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// RegisterRoutes registers the listing routes. Browsing listings needs no
// authentication.
func (h *ListingHandler) RegisterRoutes(r *gin.RouterGroup) {
	listings := r.Group("/api/v1/listings")
	{
		listings.GET("", h.ListListings)
		listings.GET("/:id", h.GetListing)
	}
}

// ListListings handles GET /api/v1/listings.
func (h *ListingHandler) ListListings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListListings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetListing handles GET /api/v1/listings/:id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	result, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
