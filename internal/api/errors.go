package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/service"
	"github.com/tender-discovery-api/internal/upstream"
	"github.com/tender-discovery-api/internal/userstate"
	"github.com/tender-discovery-api/internal/validation"
)

// statusOf maps a service error to an HTTP status
func statusOf(err error) int {
	var upErr *upstream.Error
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, userstate.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, upstream.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, upstream.ErrNoSummaryRoute):
		return http.StatusNotImplemented
	case errors.Is(err, upstream.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, upstream.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, upstream.ErrNoAudio), errors.Is(err, upstream.ErrBadPayload), errors.As(err, &upErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Internal failures are logged
// and their text withheld.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		msg = "Internal server error"
	} else if status >= 500 {
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Upstream failure")
	}
	c.JSON(status, gin.H{"error": msg})
}

func respondInvalid(c *gin.Context, errs []validation.ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"details": errs,
	})
}
