package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unistay-housing/service-booking/internal/application"
	"github.com/unistay-housing/service-booking/pkg/auth"
	"github.com/unistay-housing/service-booking/pkg/middleware"
	"github.com/unistay-housing/service-booking/pkg/response"
)

// AdminHandler handles the admin booking queue.
type AdminHandler struct {
	service *application.BookingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.BookingService) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers all admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.GetBookingStats)
		admin.POST("/bookings/:id/approve", h.ApproveBooking)
		admin.POST("/bookings/:id/reject", h.RejectBooking)
		admin.POST("/bookings/:id/reset", h.ResetBooking)
		admin.DELETE("/bookings/:id", h.DeleteBooking)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	dtos, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dtos, total, page, limit)
}

// GetBookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) GetBookingStats(c *gin.Context) {
	result, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ApproveBooking handles POST /api/v1/admin/bookings/:id/approve.
func (h *AdminHandler) ApproveBooking(c *gin.Context) {
	h.review(c, h.service.ApproveBooking)
}

// RejectBooking handles POST /api/v1/admin/bookings/:id/reject.
func (h *AdminHandler) RejectBooking(c *gin.Context) {
	h.review(c, h.service.RejectBooking)
}

// ResetBooking handles POST /api/v1/admin/bookings/:id/reset. It returns a
// confirmed or rejected booking to the confirmation queue.
func (h *AdminHandler) ResetBooking(c *gin.Context) {
	h.review(c, h.service.ResetBooking)
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id.
func (h *AdminHandler) DeleteBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

type reviewFn func(ctx context.Context, bookingID, adminID uuid.UUID, role string) (*application.BookingDTO, error)

func (h *AdminHandler) review(c *gin.Context, apply reviewFn) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role := middleware.GetUserRoleString(c)

	result, err := apply(c.Request.Context(), bookingID, adminID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
