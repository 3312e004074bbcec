package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

func withSessionCookie(c interface{ Request() *http.Request }, id string) {
	c.Request().AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
}

func TestDigilockerHandler_Initialize(t *testing.T) {
	svc := &stubVerificationService{
		initializeFn: func(ctx context.Context, userID string, in ports.InitializeInput) (*ports.InitializeResult, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, ports.InitializeInput{FullName: "Alice Doe", Email: "alice@example.com", MobileNumber: "9876543210"}, in)
			return &ports.InitializeResult{
				SessionID:     "sess-1",
				ClientID:      "digilocker_abc",
				URL:           "https://digilocker.example/consent",
				ExpirySeconds: 600,
				TTL:           10 * time.Minute,
			}, nil
		},
	}
	h := NewDigilockerHandler(svc, testCookies)

	c, rec := newContext(http.MethodPost, "/api/digilocker/initialize", `{"fullName":"Alice Doe","email":"alice@example.com","mobileNumber":"9876543210"}`, "u1")
	require.NoError(t, h.Initialize(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp initializeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "digilocker_abc", resp.Data.ClientID)
	assert.Equal(t, "https://digilocker.example/consent", resp.Data.URL)
	assert.Equal(t, 600, resp.Data.ExpirySeconds)
	assert.Empty(t, resp.Data.VerificationCode)

	ck := findCookie(rec, sessionCookie)
	require.NotNil(t, ck)
	assert.Equal(t, "sess-1", ck.Value)
	assert.Equal(t, 600, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
}

func TestDigilockerHandler_Initialize_VendorError(t *testing.T) {
	vendorErr := &domain.VendorError{Op: "initialize", Err: domain.ErrVendorTimeout, Message: "try again"}
	svc := &stubVerificationService{
		initializeFn: func(ctx context.Context, userID string, in ports.InitializeInput) (*ports.InitializeResult, error) {
			return nil, vendorErr
		},
	}
	h := NewDigilockerHandler(svc, testCookies)

	c, rec := newContext(http.MethodPost, "/api/digilocker/initialize", `{"fullName":"A","email":"a@b.co","mobileNumber":"9876543210"}`, "u1")
	err := h.Initialize(c)
	assert.ErrorIs(t, err, domain.ErrVendorTimeout)
	assert.Nil(t, findCookie(rec, sessionCookie))
}

func TestDigilockerHandler_GetDocuments(t *testing.T) {
	docs := []domain.Document{
		{FileID: "f-aad", Name: "Aadhaar Card", DocType: "ADHAR"},
		{FileID: "f-pan", Name: "PAN Verification Record", DocType: "PANCR"},
	}
	svc := &stubVerificationService{
		listFn: func(ctx context.Context, userID, sessionID string) (*ports.DocumentList, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, "sess-1", sessionID)
			return &ports.DocumentList{Documents: docs, AadhaarFileID: "f-aad", PANFileID: "f-pan"}, nil
		},
	}
	h := NewDigilockerHandler(svc, testCookies)

	c, rec := newContext(http.MethodGet, "/api/digilocker/get-documents", "", "u1")
	withSessionCookie(c, "sess-1")
	require.NoError(t, h.GetDocuments(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp documentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Documents, 2)
	assert.Equal(t, "f-aad", resp.AadhaarFileID)
	assert.Equal(t, "f-pan", resp.PANFileID)
}

func TestDigilockerHandler_GetDocuments_NoSession(t *testing.T) {
	svc := &stubVerificationService{
		listFn: func(ctx context.Context, userID, sessionID string) (*ports.DocumentList, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewDigilockerHandler(svc, testCookies)

	c, _ := newContext(http.MethodGet, "/api/digilocker/get-documents", "", "u1")
	assert.ErrorIs(t, h.GetDocuments(c), domain.ErrSessionNotFound)
}

func TestDigilockerHandler_GetDocuments_Missing(t *testing.T) {
	docs := []domain.Document{{FileID: "f-aad", Name: "Aadhaar Card", DocType: "ADHAR"}}
	svc := &stubVerificationService{
		listFn: func(ctx context.Context, userID, sessionID string) (*ports.DocumentList, error) {
			return nil, &domain.MissingDocumentsError{Missing: []string{"PAN"}, Documents: docs, AadhaarFileID: "f-aad"}
		},
	}
	h := NewDigilockerHandler(svc, testCookies)

	c, rec := newContext(http.MethodGet, "/api/digilocker/get-documents", "", "u1")
	withSessionCookie(c, "sess-1")
	require.NoError(t, h.GetDocuments(c))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp documentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, []string{"PAN"}, resp.MissingDocuments)
	assert.Equal(t, "f-aad", resp.AadhaarFileID)
	assert.Empty(t, resp.PANFileID)
	assert.Equal(t, "Required document(s) not found: PAN", resp.Message)
}

func TestDigilockerHandler_GetDownload(t *testing.T) {
	svc := &stubVerificationService{
		downloadFn: func(ctx context.Context, userID, sessionID, aadhaarFileID, panFileID string) (*ports.DownloadResult, error) {
			assert.Equal(t, "f-aad", aadhaarFileID)
			assert.Equal(t, "f-pan", panFileID)
			return &ports.DownloadResult{
				Aadhaar:          &domain.DownloadLink{DownloadURL: "https://files/aad.pdf", MimeType: "application/pdf"},
				PAN:              &domain.DownloadLink{DownloadURL: "https://files/pan.pdf", MimeType: "application/pdf"},
				VerificationCode: "CW-1767225600000-ABCDEFGHI",
			}, nil
		},
	}
	h := NewDigilockerHandler(svc, testCookies)

	c, rec := newContext(http.MethodPost, "/api/digilocker/get-download", `{"aadhaarFileId":"f-aad","panFileId":"f-pan"}`, "u1")
	withSessionCookie(c, "sess-1")
	require.NoError(t, h.GetDownload(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp downloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://files/aad.pdf", resp.Aadhaar.DownloadURL)
	assert.Equal(t, "https://files/pan.pdf", resp.PAN.DownloadURL)
	assert.Equal(t, "CW-1767225600000-ABCDEFGHI", resp.VerificationCode)
}

func TestDigilockerHandler_GetDownload_Partial(t *testing.T) {
	svc := &stubVerificationService{
		downloadFn: func(ctx context.Context, userID, sessionID, aadhaarFileID, panFileID string) (*ports.DownloadResult, error) {
			return nil, &domain.PartialDownloadError{
				Aadhaar: &domain.DownloadLink{DownloadURL: "https://files/aad.pdf"},
				Cause:   &domain.VendorError{Op: "download", Err: domain.ErrVendorTimeout},
			}
		},
	}
	h := NewDigilockerHandler(svc, testCookies)

	c, rec := newContext(http.MethodPost, "/api/digilocker/get-download", `{"aadhaarFileId":"f-aad","panFileId":"f-pan"}`, "u1")
	withSessionCookie(c, "sess-1")
	require.NoError(t, h.GetDownload(c))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp downloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Aadhaar)
	assert.Nil(t, resp.PAN)
	assert.Empty(t, resp.VerificationCode)
	assert.Equal(t, "Failed to download one or more documents", resp.Message)
}

func TestDigilockerHandler_GetDownload_ServiceError(t *testing.T) {
	svc := &stubVerificationService{
		downloadFn: func(ctx context.Context, userID, sessionID, aadhaarFileID, panFileID string) (*ports.DownloadResult, error) {
			return nil, domain.NewValidationError("panFileId", "Both Aadhaar and PAN file IDs are required")
		},
	}
	h := NewDigilockerHandler(svc, testCookies)

	c, _ := newContext(http.MethodPost, "/api/digilocker/get-download", `{"aadhaarFileId":"f-aad"}`, "u1")
	withSessionCookie(c, "sess-1")
	err := h.GetDownload(c)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "panFileId", ve.Field)
}
