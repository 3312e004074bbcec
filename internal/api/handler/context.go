package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/titantech/kyc-gateway/internal/api/middleware"
)

// ctxUserID extracts the user id injected by the Auth middleware. An empty id
// means the middleware did not run or the token lacked the claim.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.UserIDKey).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return userID, nil
}
