package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unistay-housing/service-booking/pkg/domain"
)

// Envelope is the JSON shape of every non-error response.
type Envelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope is the JSON shape of every error response.
type ErrorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Data: data})
}

// Created writes a 201 with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Data: data})
}

// NoContent writes a 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a 200 with items plus pagination totals.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// BadRequest writes a 400 with a validation error body.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Error: errorBody{Code: string(domain.ErrorTypeValidation), Message: message},
	})
}

// Error maps a domain error to its HTTP status code. Errors outside the
// taxonomy become opaque 500s.
func Error(c *gin.Context, err error) {
	t, ok := domain.TypeOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: errorBody{Code: "internal", Message: "internal server error"},
		})
		return
	}

	c.JSON(statusFor(t), ErrorEnvelope{
		Error: errorBody{Code: string(t), Message: err.Error()},
	})
}

func statusFor(t domain.ErrorType) int {
	switch t {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrorTypeForbidden:
		return http.StatusForbidden
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict, domain.ErrorTypeInvalidState, domain.ErrorTypeConcurrentModification:
		return http.StatusConflict
	case domain.ErrorTypePayment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
