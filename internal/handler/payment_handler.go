package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unistay-housing/service-booking/internal/payment"
)

// PaymentHandler receives M-Pesa C2B notifications.
type PaymentHandler struct {
	gate   *payment.Gate
	logger *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(gate *payment.Gate, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{gate: gate, logger: logger}
}

// RegisterRoutes registers the callback route. Safaricom calls it
// unauthenticated, so it sits outside the auth group.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/api/v1/payments/c2b-callback", h.C2BCallback)
}

// C2BCallback handles POST /api/v1/payments/c2b-callback. Safaricom
// requires ResultCode 0 in the reply regardless of how processing went,
// otherwise it keeps retrying.
func (h *PaymentHandler) C2BCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read C2B callback body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
		return
	}

	if err := h.gate.HandleNotification(c.Request.Context(), body); err != nil {
		h.logger.Error("failed to process C2B notification", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}
