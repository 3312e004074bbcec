package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/titantech/kyc-gateway/internal/api/middleware"
	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

type stubAuthService struct {
	signupFn   func(ctx context.Context, officialName, email, password string) (string, *domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	meFn       func(ctx context.Context, userID string) (*domain.User, error)
	completeFn func(ctx context.Context, userID string, in ports.ProfileInput) (*domain.User, error)
}

func (s *stubAuthService) Signup(ctx context.Context, officialName, email, password string) (string, *domain.User, error) {
	return s.signupFn(ctx, officialName, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

func (s *stubAuthService) CompleteProfile(ctx context.Context, userID string, in ports.ProfileInput) (*domain.User, error) {
	return s.completeFn(ctx, userID, in)
}

type stubVerificationService struct {
	initializeFn func(ctx context.Context, userID string, in ports.InitializeInput) (*ports.InitializeResult, error)
	listFn       func(ctx context.Context, userID, sessionID string) (*ports.DocumentList, error)
	downloadFn   func(ctx context.Context, userID, sessionID, aadhaarFileID, panFileID string) (*ports.DownloadResult, error)
	saveFn       func(ctx context.Context, userID, code string) (*domain.User, error)
	confirmFn    func(ctx context.Context, email, code string) error
	panFn        func(ctx context.Context, idNumber string) (*domain.PANDetails, error)
}

func (s *stubVerificationService) Initialize(ctx context.Context, userID string, in ports.InitializeInput) (*ports.InitializeResult, error) {
	return s.initializeFn(ctx, userID, in)
}

func (s *stubVerificationService) ListDocuments(ctx context.Context, userID, sessionID string) (*ports.DocumentList, error) {
	return s.listFn(ctx, userID, sessionID)
}

func (s *stubVerificationService) DownloadDocuments(ctx context.Context, userID, sessionID, aadhaarFileID, panFileID string) (*ports.DownloadResult, error) {
	return s.downloadFn(ctx, userID, sessionID, aadhaarFileID, panFileID)
}

func (s *stubVerificationService) SaveVerification(ctx context.Context, userID, code string) (*domain.User, error) {
	return s.saveFn(ctx, userID, code)
}

func (s *stubVerificationService) ConfirmVerification(ctx context.Context, email, code string) error {
	return s.confirmFn(ctx, email, code)
}

func (s *stubVerificationService) VerifyPAN(ctx context.Context, idNumber string) (*domain.PANDetails, error) {
	return s.panFn(ctx, idNumber)
}

// newContext builds an echo context with the validator installed. A non-empty
// userID simulates the Auth middleware having run.
func newContext(method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.UserIDKey, userID)
	}
	return c, rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
