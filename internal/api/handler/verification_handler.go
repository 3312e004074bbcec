package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/titantech/kyc-gateway/internal/core/ports"
)

type VerificationHandler struct {
	verification ports.VerificationService
}

func NewVerificationHandler(verification ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// ConfirmVerification marks the account with the given email as verified.
// Used by the DigiLocker callback page, so it carries no session.
//
// @Summary      Confirm DigiLocker verification
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body      confirmVerificationRequest  true  "Email and code"
// @Success      200   {object}  confirmVerificationResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /api/verify-digilocker [post]
func (h *VerificationHandler) ConfirmVerification(c echo.Context) error {
	var req confirmVerificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.verification.ConfirmVerification(c.Request().Context(), req.Email, req.VerificationCode); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, confirmVerificationResponse{
		Status:  "success",
		Message: "DigiLocker verification successful",
	})
}

// VerifyPAN looks up a PAN with the vendor.
//
// @Summary      Verify PAN
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body      panRequest  true  "PAN number"
// @Success      200   {object}  panResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /api/pan-verification [post]
func (h *VerificationHandler) VerifyPAN(c echo.Context) error {
	var req panRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	details, err := h.verification.VerifyPAN(c.Request().Context(), req.IDNumber)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, panResponse{Success: true, Data: details})
}
