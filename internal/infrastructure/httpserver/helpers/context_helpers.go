package helpers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const subjectKey = "auth_subject"

func GetJWTTokenFromContext(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}
	return token, nil
}

// SetSubject records the authenticated caller for logging.
func SetSubject(c echo.Context, subject string) {
	c.Set(subjectKey, subject)
}

// GetSubject returns the authenticated caller, or "" when auth is disabled.
func GetSubject(c echo.Context) string {
	if s, ok := c.Get(subjectKey).(string); ok {
		return s
	}
	return ""
}
