package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/titantech/kyc-gateway/internal/core/domain"
)

// UserLookup loads the user the Auth middleware authenticated.
type UserLookup func(ctx context.Context, userID string) (*domain.User, error)

// RequireProfileComplete rejects users who have not finished profile setup.
// Must run after Auth.
func RequireProfileComplete(lookup UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(UserIDKey).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			user, err := lookup(c.Request().Context(), userID)
			if err != nil {
				return err
			}
			if !user.ProfileComplete {
				return echo.NewHTTPError(http.StatusForbidden, "Please complete your profile first")
			}
			return next(c)
		}
	}
}
