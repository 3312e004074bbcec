package domain

import (
	"regexp"
	"strings"
	"time"
)

// VerificationStage is the lifecycle state of one DigiLocker verification attempt.
type VerificationStage string

const (
	StageIdle                      VerificationStage = "idle"
	StageInitializing              VerificationStage = "initializing"
	StageAwaitingUserAuthorization VerificationStage = "awaiting_user_authorization"
	StageListingDocuments          VerificationStage = "listing_documents"
	StageDownloading               VerificationStage = "downloading"
	StageCompleted                 VerificationStage = "completed"
	StageFailed                    VerificationStage = "failed"
)

// validStageTransitions defines the verification state machine.
var validStageTransitions = map[VerificationStage][]VerificationStage{
	StageIdle:                      {StageInitializing},
	StageInitializing:              {StageAwaitingUserAuthorization, StageFailed},
	StageAwaitingUserAuthorization: {StageListingDocuments, StageFailed},
	StageListingDocuments:          {StageListingDocuments, StageDownloading, StageFailed},
	StageDownloading:               {StageCompleted, StageFailed},
	StageFailed:                    {StageInitializing, StageListingDocuments},
	StageCompleted:                 {StageInitializing},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s VerificationStage) CanTransitionTo(next VerificationStage) bool {
	for _, allowed := range validStageTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const (
	DocumentAadhaar = "Aadhaar"
	DocumentPAN     = "PAN"

	DocTypeAadhaar = "ADHAR"
	DocTypePAN     = "PANCR"

	DefaultSessionTTL = 600 * time.Second
)

// VendorSession is what the vendor returns from initialize.
type VendorSession struct {
	ClientID      string `json:"client_id"`
	Token         string `json:"token"`
	URL           string `json:"url"`
	ExpirySeconds int    `json:"expiry_seconds"`
}

// TTL returns the vendor expiry, falling back to DefaultSessionTTL.
func (v VendorSession) TTL() time.Duration {
	if v.ExpirySeconds <= 0 {
		return DefaultSessionTTL
	}
	return time.Duration(v.ExpirySeconds) * time.Second
}

// VerificationSession is the server-side state of one verification attempt.
// The browser only holds ID.
type VerificationSession struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	ClientID         string            `json:"client_id"`
	Token            string            `json:"token"`
	RedirectURL      string            `json:"redirect_url"`
	Stage            VerificationStage `json:"stage"`
	AadhaarFileID    string            `json:"aadhaar_file_id,omitempty"`
	PANFileID        string            `json:"pan_file_id,omitempty"`
	VerificationCode string            `json:"verification_code,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	ExpiresAt        time.Time         `json:"expires_at"`
}

// Document is a vendor-side document reference.
type Document struct {
	FileID      string `json:"file_id"`
	Name        string `json:"name"`
	DocType     string `json:"doc_type"`
	Downloaded  bool   `json:"downloaded"`
	Issuer      string `json:"issuer"`
	Description string `json:"description"`
}

// DownloadLink is the vendor answer for one document download.
type DownloadLink struct {
	DownloadURL string `json:"download_url"`
	MimeType    string `json:"mime_type"`
	OK          bool   `json:"-"`
}

// Usable reports whether the link can be handed to the user.
func (l *DownloadLink) Usable() bool {
	return l != nil && l.OK && l.DownloadURL != ""
}

// PANDetails is the vendor answer for a PAN lookup.
type PANDetails struct {
	ClientID  string `json:"client_id"`
	PANNumber string `json:"pan_number"`
	FullName  string `json:"full_name"`
	Category  string `json:"category,omitempty"`
}

// VerificationEvent is an audit record of a stage transition.
type VerificationEvent struct {
	UserID     string
	SessionID  string
	ClientID   string
	Stage      VerificationStage
	Message    string
	OccurredAt time.Time
}

var (
	contactEmailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRe       = regexp.MustCompile(`^\d{10}$`)
	phoneRe        = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// ValidateContact checks the details sent to the vendor on initialize.
func ValidateContact(fullName, email, mobile string) error {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(mobile) == "" {
		return NewValidationError("contact", "Full name, email, and mobile number are required")
	}
	if !contactEmailRe.MatchString(email) {
		return NewValidationError("email", "Please provide a valid email address")
	}
	if !mobileRe.MatchString(mobile) {
		return NewValidationError("mobileNumber", "Please provide a valid 10-digit mobile number")
	}
	return nil
}

// ValidPhone reports whether a profile phone number is acceptable.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}
