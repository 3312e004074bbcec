package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this email already exists")
	ErrUnderage           = errors.New("you must be at least 18 years old to use this service")

	ErrConfiguration   = errors.New("server configuration error")
	ErrVendorTimeout   = errors.New("vendor request timed out")
	ErrVendorRejected  = errors.New("vendor rejected request")
	ErrPartialResult   = errors.New("partial result")
	ErrSessionNotFound = errors.New("digilocker session not found")
	ErrInvalidStage    = errors.New("invalid verification stage transition")
)

// ValidationError reports bad caller input. No side effects happen before it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConfigurationError names the server setting that is missing.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not configured", e.Setting)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// VendorError is a failed call to the KYC vendor. Err is ErrVendorTimeout or ErrVendorRejected.
type VendorError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *VendorError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %v (status %d): %s", e.Op, e.Err, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Message)
}

func (e *VendorError) Unwrap() error { return e.Err }

// Timeout reports whether the vendor never answered in time.
func (e *VendorError) Timeout() bool { return errors.Is(e.Err, ErrVendorTimeout) }

// MissingDocumentsError is returned when the vendor listing lacks a required document.
type MissingDocumentsError struct {
	Missing       []string
	Documents     []Document
	AadhaarFileID string
	PANFileID     string
}

func (e *MissingDocumentsError) Error() string {
	return "Required document(s) not found: " + strings.Join(e.Missing, ", ")
}

func (e *MissingDocumentsError) Unwrap() error { return ErrPartialResult }

// PartialDownloadError is returned when at least one document download did not yield a link.
type PartialDownloadError struct {
	Aadhaar *DownloadLink
	PAN     *DownloadLink
	Cause   error
}

func (e *PartialDownloadError) Error() string {
	if e.Cause != nil {
		return "failed to download one or more documents: " + e.Cause.Error()
	}
	return "failed to download one or more documents"
}

func (e *PartialDownloadError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrPartialResult, e.Cause}
	}
	return []error{ErrPartialResult}
}
