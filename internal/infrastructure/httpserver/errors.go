package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/extraction-cache/internal/core/domain/apperr"
)

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindFileNotFound:
		return http.StatusNotFound
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	case apperr.KindInvalidDirectory:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a cache error as {kind, message}. Anything that is not
// an *apperr.Error is reported as an IoError so callers always see a kind.
func (s *Server) respondError(c echo.Context, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.IO("request", err)
	}
	status := statusForKind(ae.Kind)
	if s.logger != nil && status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", c.Path()).Error("cache operation failed")
	}
	return c.JSON(status, ae)
}
