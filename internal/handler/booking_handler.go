package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unistay-housing/service-booking/internal/application"
	"github.com/unistay-housing/service-booking/internal/payment"
	"github.com/unistay-housing/service-booking/pkg/auth"
	"github.com/unistay-housing/service-booking/pkg/middleware"
	"github.com/unistay-housing/service-booking/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
	gate    *payment.Gate
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService, gate *payment.Gate) *BookingHandler {
	return &BookingHandler{service: service, gate: gate}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleTenant), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/pay", middleware.RequireRole(auth.RoleTenant), h.InitiatePayment)
		bookings.POST("/:id/confirm-payment", h.ConfirmPayment)
		bookings.POST("/:id/cancel", middleware.RequireRole(auth.RoleTenant), h.CancelBooking)
		bookings.DELETE("/:id", middleware.RequireRole(auth.RoleTenant), h.PurgeBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	email, _ := middleware.GetUserEmail(c)

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, email, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Tenants see their own bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetTenantBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !h.canAccess(c, result.TenantID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	response.Success(c, result)
}

// InitiatePayment handles POST /api/v1/bookings/:id/pay. It triggers an
// M-Pesa STK push for the reservation fee.
func (h *BookingHandler) InitiatePayment(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.gate.InitiatePayment(c.Request.Context(), bookingID, userID, body.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmPayment handles POST /api/v1/bookings/:id/confirm-payment. It
// records a manually supplied receipt and queues the booking for admin
// review.
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	bk, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.canAccess(c, bk.TenantID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var body struct {
		Receipt string `json:"receipt"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.ConfirmPayment(c.Request.Context(), bookingID, body.Receipt)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// PurgeBooking handles DELETE /api/v1/bookings/:id. Tenants may remove
// cancelled or rejected bookings from their history.
func (h *BookingHandler) PurgeBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.PurgeBooking(c.Request.Context(), bookingID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// canAccess reports whether the authenticated user may read the booking:
// the owning tenant, or any admin.
func (h *BookingHandler) canAccess(c *gin.Context, tenantID uuid.UUID) bool {
	role := middleware.GetUserRoleString(c)
	if role == auth.RoleAdmin {
		return true
	}
	userID, ok := middleware.GetUserID(c)
	return ok && userID == tenantID
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
