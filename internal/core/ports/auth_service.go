package ports

import (
	"context"
	"time"

	"github.com/titantech/kyc-gateway/internal/core/domain"
)

// ProfileInput is the DTO for profile setup.
type ProfileInput struct {
	DateOfBirth      time.Time
	SecurityQuestion string
	SecurityAnswer   string
	PhoneNumber      string
}

type AuthService interface {
	Signup(ctx context.Context, officialName, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	CompleteProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error)
}
