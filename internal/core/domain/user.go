package domain

import (
	"strings"
	"time"
)

const (
	MinPasswordLength = 8
	MaxNameLength     = 100
	MinAge            = 18

	// MaxSecretBytes is the bcrypt input limit for passwords and security answers.
	MaxSecretBytes = 72
)

// User models an account holder.
type User struct {
	ID                 string    `json:"id"`
	OfficialName       string    `json:"officialName"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	DateOfBirth        time.Time `json:"dateOfBirth,omitzero"`
	SecurityQuestion   string    `json:"securityQuestion,omitempty"`
	SecurityAnswerHash string    `json:"-"`
	PhoneNumber        string    `json:"phoneNumber,omitempty"`
	ProfileComplete    bool      `json:"profileComplete"`

	DigilockerVerified         bool      `json:"digilockerVerified"`
	DigilockerVerificationCode string    `json:"digilockerVerificationCode,omitempty"`
	DigilockerVerifiedAt       time.Time `json:"digilockerVerifiedAt,omitzero"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the fields written by profile setup.
type ProfileUpdate struct {
	DateOfBirth        time.Time
	SecurityQuestion   string
	SecurityAnswerHash string
	PhoneNumber        string
}

// VerificationUpdate carries the fields written by the DigiLocker flow.
type VerificationUpdate struct {
	Verified   bool
	Code       string
	VerifiedAt time.Time
}

// NormalizeEmail trims and lower-cases an address; emails are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AgeOn returns the number of full years between dob and now.
func AgeOn(dob, now time.Time) int {
	dob = dob.UTC()
	now = now.UTC()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
