package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titantech/kyc-gateway/internal/core/domain"
)

func TestVerificationHandler_Confirm(t *testing.T) {
	svc := &stubVerificationService{
		confirmFn: func(ctx context.Context, email, code string) error {
			assert.Equal(t, "alice@example.com", email)
			assert.Equal(t, "CW-1-ABC", code)
			return nil
		},
	}
	h := NewVerificationHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/verify-digilocker", `{"email":"alice@example.com","verificationCode":"CW-1-ABC"}`, "")
	require.NoError(t, h.ConfirmVerification(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp confirmVerificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "DigiLocker verification successful", resp.Message)
}

func TestVerificationHandler_Confirm_Errors(t *testing.T) {
	for _, want := range []error{
		domain.ErrUserNotFound,
		domain.NewValidationError("verificationCode", "Invalid verification code"),
	} {
		svc := &stubVerificationService{
			confirmFn: func(ctx context.Context, email, code string) error { return want },
		}
		h := NewVerificationHandler(svc)

		c, _ := newContext(http.MethodPost, "/api/verify-digilocker", `{"email":"ghost@example.com","verificationCode":"x"}`, "")
		assert.True(t, errors.Is(h.ConfirmVerification(c), want))
	}
}

func TestVerificationHandler_VerifyPAN(t *testing.T) {
	svc := &stubVerificationService{
		panFn: func(ctx context.Context, idNumber string) (*domain.PANDetails, error) {
			assert.Equal(t, "ABCDE1234F", idNumber)
			return &domain.PANDetails{ClientID: "pan_1", PANNumber: idNumber, FullName: "ALICE DOE"}, nil
		},
	}
	h := NewVerificationHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/pan-verification", `{"id_number":"ABCDE1234F"}`, "u1")
	require.NoError(t, h.VerifyPAN(c))

	var resp panResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "ALICE DOE", resp.Data.FullName)
}

func TestVerificationHandler_VerifyPAN_Invalid(t *testing.T) {
	svc := &stubVerificationService{
		panFn: func(ctx context.Context, idNumber string) (*domain.PANDetails, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewVerificationHandler(svc)

	for _, body := range []string{`{}`, `{"id_number":"ABC"}`, `{"id_number":"ABCDE-234F"}`} {
		c, _ := newContext(http.MethodPost, "/api/pan-verification", body, "u1")
		assert.ErrorIs(t, h.VerifyPAN(c), domain.ErrValidation, body)
	}
}
