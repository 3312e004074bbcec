package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	verification ports.VerificationService
	cookies      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, verification ports.VerificationService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, verification: verification, cookies: cookies}
}

// Signup creates a new account and logs the user in.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.authService.Signup(c.Request().Context(), req.OfficialName, req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookies.setToken(c, token)
	return c.JSON(http.StatusCreated, authResponse{Success: true, User: user, Message: "Account created successfully"})
}

// Login authenticates a user and sets the session token cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookies.setToken(c, token)
	return c.JSON(http.StatusOK, authResponse{Success: true, User: user, Message: "Logged in successfully"})
}

// Logout clears the token cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.clearToken(c)
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Logged out successfully"})
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Success: true, User: user})
}

// ProfileSetup stores date of birth, phone and security question.
//
// @Summary      Complete profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      profileSetupRequest  true  "Profile details"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /api/auth/profile-setup [put]
func (h *AuthHandler) ProfileSetup(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req profileSetupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return domain.NewValidationError("dateOfBirth", "Invalid date of birth")
	}

	user, err := h.authService.CompleteProfile(c.Request().Context(), userID, ports.ProfileInput{
		DateOfBirth:      dob,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
		PhoneNumber:      req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Success: true, User: user, Message: "Profile completed successfully"})
}

// SaveVerification records a DigiLocker verification code against the user.
//
// @Summary      Save DigiLocker verification
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      saveVerificationRequest  true  "Verification code"
// @Success      200   {object}  saveVerificationResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /api/auth/save-digilocker-verification [post]
func (h *AuthHandler) SaveVerification(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req saveVerificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.verification.SaveVerification(c.Request().Context(), userID, req.VerificationCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saveVerificationResponse{
		Success: true,
		Message: "DigiLocker verification saved successfully",
		Data: verificationData{
			DigilockerVerified:         user.DigilockerVerified,
			DigilockerVerificationCode: user.DigilockerVerificationCode,
			DigilockerVerifiedAt:       user.DigilockerVerifiedAt,
		},
	})
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
