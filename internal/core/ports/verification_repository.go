package ports

import (
	"context"
	"time"

	"github.com/titantech/kyc-gateway/internal/core/domain"
)

// UserRepository defines persistence operations for account holders.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateProfile sets the profile fields and marks the profile complete.
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)
	// UpdateVerification writes the DigiLocker verification fields (last write wins).
	UpdateVerification(ctx context.Context, id string, update domain.VerificationUpdate) (*domain.User, error)
}

// VerificationEventRepository persists the audit trail of verification attempts.
type VerificationEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.VerificationEvent) error
}

// SessionStore holds verification sessions between the vendor calls of one attempt.
type SessionStore interface {
	Save(ctx context.Context, session *domain.VerificationSession, ttl time.Duration) error
	// Get returns domain.ErrSessionNotFound when the session is missing or expired.
	Get(ctx context.Context, id string) (*domain.VerificationSession, error)
	// Update overwrites the session keeping its remaining TTL.
	Update(ctx context.Context, session *domain.VerificationSession) error
}

// CodeDedup makes verification-code persistence idempotent. IsDuplicate is
// true only when code is the last one marked for the user.
type CodeDedup interface {
	IsDuplicate(ctx context.Context, userID, code string) (bool, error)
	Mark(ctx context.Context, userID, code string) error
}
