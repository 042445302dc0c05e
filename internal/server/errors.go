package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
)

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindDuplicateEmail:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated, apperr.KindInactiveAccount:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindCapacityExceeded:
		return http.StatusConflict
	case apperr.KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"detail": msg} and aborts the chain. Errors
// that are not domain errors are logged and hidden from the client.
func (s *Server) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	s.metrics.observeError(kind)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("error", err.Error()),
		)
		c.AbortWithStatusJSON(status, gin.H{"detail": "internal server error"})
		return
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": apperr.Message(err, "internal server error")})
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.respondError(c, fmt.Errorf("panic: %v", recovered))
}
