package ports

import (
	"context"
	"time"

	"github.com/titantech/kyc-gateway/internal/core/domain"
)

// InitializeInput carries the contact details prefilled on the vendor page.
type InitializeInput struct {
	FullName     string
	Email        string
	MobileNumber string
}

// InitializeResult is returned after a vendor session has been opened.
type InitializeResult struct {
	SessionID     string
	ClientID      string
	URL           string
	ExpirySeconds int
	TTL           time.Duration
	// VerificationCode is only set when codes are persisted optimistically.
	VerificationCode string
}

// DocumentList is the classified vendor document listing.
type DocumentList struct {
	Documents     []domain.Document
	AadhaarFileID string
	PANFileID     string
}

// DownloadResult holds both document links and the persisted verification code.
type DownloadResult struct {
	Aadhaar          *domain.DownloadLink
	PAN              *domain.DownloadLink
	VerificationCode string
}

// VerificationService drives one DigiLocker verification attempt.
type VerificationService interface {
	Initialize(ctx context.Context, userID string, input InitializeInput) (*InitializeResult, error)
	ListDocuments(ctx context.Context, userID, sessionID string) (*DocumentList, error)
	DownloadDocuments(ctx context.Context, userID, sessionID, aadhaarFileID, panFileID string) (*DownloadResult, error)
	SaveVerification(ctx context.Context, userID, code string) (*domain.User, error)
	ConfirmVerification(ctx context.Context, email, code string) error
	VerifyPAN(ctx context.Context, idNumber string) (*domain.PANDetails, error)
}

// KYCVendor is the outbound port to the DigiLocker broker.
type KYCVendor interface {
	Initialize(ctx context.Context, input InitializeInput) (*domain.VendorSession, error)
	ListDocuments(ctx context.Context, clientID string) ([]domain.Document, error)
	DownloadDocument(ctx context.Context, clientID, fileID string) (*domain.DownloadLink, error)
	VerifyPAN(ctx context.Context, idNumber string) (*domain.PANDetails, error)
}

// VerificationJob asks for a verification code to be recorded against a user.
type VerificationJob struct {
	UserID     string
	SessionID  string
	Code       string
	VerifiedAt time.Time
	Source     string
}

// VerificationRecorder persists a verification code and announces it.
type VerificationRecorder interface {
	Record(ctx context.Context, job VerificationJob) (*domain.User, error)
}

// JobQueue accepts fire-and-forget verification jobs.
type JobQueue interface {
	Enqueue(job VerificationJob)
}

// VerificationCompleted is the event published once a user is verified.
type VerificationCompleted struct {
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id,omitempty"`
	Code       string    `json:"verification_code"`
	VerifiedAt time.Time `json:"verified_at"`
	Source     string    `json:"source"`
}

// EventPublisher announces verification outcomes to other services.
type EventPublisher interface {
	PublishVerificationCompleted(ctx context.Context, event VerificationCompleted) error
}
