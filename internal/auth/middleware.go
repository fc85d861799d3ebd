package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const AdminEmailKey contextKey = "admin_email"

// Middleware validates the bearer token and stores the admin email on the
// request context. Registry activity is checked separately on the admin
// route group.
func (s *Service) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
		}

		email, err := s.ParseToken(parts[1])
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set(string(AdminEmailKey), email)
		return next(c)
	}
}

// GetAdminEmail retrieves the authenticated admin email from the context.
func GetAdminEmail(c echo.Context) (string, error) {
	email, ok := c.Get(string(AdminEmailKey)).(string)
	if !ok || email == "" {
		return "", errors.New("admin email not found in context")
	}
	return email, nil
}
