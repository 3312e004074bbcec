package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

type DigilockerHandler struct {
	verification ports.VerificationService
	cookies      CookieConfig
}

func NewDigilockerHandler(verification ports.VerificationService, cookies CookieConfig) *DigilockerHandler {
	return &DigilockerHandler{verification: verification, cookies: cookies}
}

// Initialize opens a DigiLocker session with the vendor.
//
// @Summary      Initialize DigiLocker
// @Tags         digilocker
// @Accept       json
// @Produce      json
// @Param        body  body      initializeRequest  true  "Contact details"
// @Success      200   {object}  initializeResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /api/digilocker/initialize [post]
func (h *DigilockerHandler) Initialize(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req initializeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.verification.Initialize(c.Request().Context(), userID, ports.InitializeInput{
		FullName:     req.FullName,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		return err
	}

	h.cookies.setSession(c, res.SessionID, res.TTL)
	return c.JSON(http.StatusOK, initializeResponse{
		Success: true,
		Data: initializeData{
			SessionID:        res.SessionID,
			ClientID:         res.ClientID,
			URL:              res.URL,
			ExpirySeconds:    res.ExpirySeconds,
			VerificationCode: res.VerificationCode,
		},
	})
}

// GetDocuments lists the documents issued to the DigiLocker account.
//
// @Summary      List DigiLocker documents
// @Tags         digilocker
// @Produce      json
// @Success      200  {object}  documentsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      422  {object}  documentsResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /api/digilocker/get-documents [get]
func (h *DigilockerHandler) GetDocuments(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	sid := sessionID(c)
	if sid == "" {
		return domain.ErrSessionNotFound
	}

	list, err := h.verification.ListDocuments(c.Request().Context(), userID, sid)
	if err != nil {
		var missing *domain.MissingDocumentsError
		if errors.As(err, &missing) {
			return c.JSON(http.StatusUnprocessableEntity, documentsResponse{
				Success:          false,
				Documents:        missing.Documents,
				AadhaarFileID:    missing.AadhaarFileID,
				PANFileID:        missing.PANFileID,
				Message:          missing.Error(),
				MissingDocuments: missing.Missing,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, documentsResponse{
		Success:       true,
		Documents:     list.Documents,
		AadhaarFileID: list.AadhaarFileID,
		PANFileID:     list.PANFileID,
	})
}

// GetDownload fetches download links for the Aadhaar and PAN documents.
//
// @Summary      Download DigiLocker documents
// @Tags         digilocker
// @Accept       json
// @Produce      json
// @Param        body  body      downloadRequest  true  "File ids"
// @Success      200   {object}  downloadResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      422   {object}  downloadResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /api/digilocker/get-download [post]
func (h *DigilockerHandler) GetDownload(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	sid := sessionID(c)
	if sid == "" {
		return domain.ErrSessionNotFound
	}

	var req downloadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.verification.DownloadDocuments(c.Request().Context(), userID, sid, req.AadhaarFileID, req.PANFileID)
	if err != nil {
		var partial *domain.PartialDownloadError
		if errors.As(err, &partial) {
			return c.JSON(http.StatusUnprocessableEntity, downloadResponse{
				Success: false,
				Aadhaar: partial.Aadhaar,
				PAN:     partial.PAN,
				Message: "Failed to download one or more documents",
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, downloadResponse{
		Success:          true,
		Aadhaar:          res.Aadhaar,
		PAN:              res.PAN,
		VerificationCode: res.VerificationCode,
	})
}
