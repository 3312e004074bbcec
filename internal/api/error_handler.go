package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/titantech/kyc-gateway/internal/api/handler"
	"github.com/titantech/kyc-gateway/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders {"success": false, "message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, handler.ErrorResponse{Success: false, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	// Partial results may wrap a vendor failure; the partial outcome wins.
	if errors.Is(err, domain.ErrPartialResult) {
		return http.StatusUnprocessableEntity, err.Error()
	}

	var vendorErr *domain.VendorError
	if errors.As(err, &vendorErr) {
		status := http.StatusBadGateway
		if !vendorErr.Timeout() && vendorErr.Status >= 400 {
			status = vendorErr.Status
		}
		log.Warn().
			Err(err).
			Str("operation", vendorErr.Op).
			Int("vendor_status", vendorErr.Status).
			Str("path", c.Path()).
			Msg("vendor call failed")
		return status, vendorErr.Message
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnderage):
		return http.StatusBadRequest, "You must be at least 18 years old to use this service"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, "DigiLocker session not found or expired. Please initialize again"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "User with this email already exists"
	case errors.Is(err, domain.ErrInvalidStage):
		return http.StatusConflict, "Verification step is not allowed at this stage"
	case errors.Is(err, domain.ErrConfiguration):
		log.Error().Err(err).Str("path", c.Path()).Msg("server misconfigured")
		return http.StatusInternalServerError, "Server configuration error"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}
