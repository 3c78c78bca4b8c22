package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cmdgate/internal/apperr"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.InvalidPattern, apperr.InvalidAmount:
		return http.StatusBadRequest
	case apperr.Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps an error onto the stable machine-readable contract.
// Internal detail never leaves the process.
func writeError(c *gin.Context, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		c.JSON(statusFor(ae.Kind), gin.H{"error": ae.Message, "code": ae.Kind})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
