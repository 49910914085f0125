package http

import (
	"errors"
	"net/http"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// Client-facing messages for the two errors the web client matches on.
const (
	msgUnauthorized = "Unauthorized"
	msgNotFound     = "Soil data not found"
)

// statusFor maps a domain error to its HTTP status and response message.
// Anything unrecognized is a 500 carrying the error text verbatim.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrMeasurementNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// respondError writes {"error": msg} and aborts the chain.
func respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondBindError reports a request body that could not be decoded.
func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": domain.ErrInvalidRequest.Error() + ": " + err.Error(),
	})
}
