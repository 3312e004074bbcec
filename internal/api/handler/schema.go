package handler

import (
	"time"

	"github.com/titantech/kyc-gateway/internal/core/domain"
)

// --- Auth ---

type signupRequest struct {
	OfficialName string `json:"officialName" validate:"required,max=100"`
	Email        string `json:"email"        validate:"required,email"`
	Password     string `json:"password"     validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileSetupRequest struct {
	// DateOfBirth accepts YYYY-MM-DD or RFC 3339.
	DateOfBirth      string `json:"dateOfBirth"      validate:"required"`
	SecurityQuestion string `json:"securityQuestion" validate:"required"`
	SecurityAnswer   string `json:"securityAnswer"   validate:"required,max=72"`
	PhoneNumber      string `json:"phoneNumber"      validate:"required"`
}

type authResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// --- Verification persistence ---

type saveVerificationRequest struct {
	VerificationCode string `json:"verificationCode" validate:"required"`
}

type verificationData struct {
	DigilockerVerified         bool      `json:"digilockerVerified"`
	DigilockerVerificationCode string    `json:"digilockerVerificationCode"`
	DigilockerVerifiedAt       time.Time `json:"digilockerVerifiedAt"`
}

type saveVerificationResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    verificationData `json:"data"`
}

type confirmVerificationRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
}

type confirmVerificationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// --- DigiLocker ---

type initializeRequest struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
}

type initializeData struct {
	SessionID        string `json:"session_id"`
	ClientID         string `json:"client_id"`
	URL              string `json:"url"`
	ExpirySeconds    int    `json:"expiry_seconds"`
	VerificationCode string `json:"verification_code,omitempty"`
}

type initializeResponse struct {
	Success bool           `json:"success"`
	Data    initializeData `json:"data"`
}

type documentsResponse struct {
	Success          bool              `json:"success"`
	Documents        []domain.Document `json:"documents"`
	AadhaarFileID    string            `json:"aadhaarFileId"`
	PANFileID        string            `json:"panFileId"`
	Message          string            `json:"message,omitempty"`
	MissingDocuments []string          `json:"missingDocuments,omitempty"`
}

type downloadRequest struct {
	AadhaarFileID string `json:"aadhaarFileId"`
	PANFileID     string `json:"panFileId"`
}

type downloadResponse struct {
	Success          bool                 `json:"success"`
	Aadhaar          *domain.DownloadLink `json:"aadhaar"`
	PAN              *domain.DownloadLink `json:"pan"`
	VerificationCode string               `json:"verificationCode,omitempty"`
	Message          string               `json:"message,omitempty"`
}

// --- PAN ---

type panRequest struct {
	IDNumber string `json:"id_number" validate:"required,len=10,alphanum"`
}

type panResponse struct {
	Success bool               `json:"success"`
	Data    *domain.PANDetails `json:"data"`
}

// --- Errors ---

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
