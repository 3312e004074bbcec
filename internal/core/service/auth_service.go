package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/titantech/kyc-gateway/internal/api/metrics"
	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

const (
	passwordCost       = 12
	securityAnswerCost = 10
	defaultTokenTTL    = 7 * 24 * time.Hour
)

// AuthService implements signup, login and profile setup.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		repo:      repo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) Signup(ctx context.Context, officialName, email, password string) (string, *domain.User, error) {
	officialName = strings.TrimSpace(officialName)
	email = domain.NormalizeEmail(email)
	if officialName == "" || email == "" || password == "" {
		return "", nil, domain.NewValidationError("", "All fields are required")
	}
	if len(officialName) > domain.MaxNameLength {
		return "", nil, domain.NewValidationError("officialName",
			fmt.Sprintf("Official name must be at most %d characters", domain.MaxNameLength))
	}
	if len(password) < domain.MinPasswordLength {
		return "", nil, domain.NewValidationError("password",
			fmt.Sprintf("Password must be at least %d characters long", domain.MinPasswordLength))
	}
	if len(password) > domain.MaxSecretBytes {
		return "", nil, domain.NewValidationError("password",
			fmt.Sprintf("Password must be at most %d bytes long", domain.MaxSecretBytes))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", nil, fmt.Errorf("signup: hash password: %w", err)
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.User{
		OfficialName: officialName,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(created)
	if err != nil {
		return "", nil, err
	}

	metrics.SignupsTotal.Inc()
	s.log.Info().Str("user_id", created.ID).Msg("account created")
	return token, created, nil
}

// Login returns ErrInvalidCredentials for both an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.NewValidationError("", "Email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// CompleteProfile stores date of birth, security Q&A and phone number and marks
// the profile complete. Users younger than domain.MinAge are rejected.
func (s *AuthService) CompleteProfile(ctx context.Context, userID string, in ports.ProfileInput) (*domain.User, error) {
	question := strings.TrimSpace(in.SecurityQuestion)
	answer := strings.ToLower(strings.TrimSpace(in.SecurityAnswer))
	phone := strings.TrimSpace(in.PhoneNumber)
	if in.DateOfBirth.IsZero() || question == "" || answer == "" || phone == "" {
		return nil, domain.NewValidationError("", "All fields are required")
	}
	if len(answer) > domain.MaxSecretBytes {
		return nil, domain.NewValidationError("securityAnswer",
			fmt.Sprintf("Security answer must be at most %d bytes long", domain.MaxSecretBytes))
	}
	if !domain.ValidPhone(phone) {
		return nil, domain.NewValidationError("phoneNumber", "Please provide a valid phone number")
	}
	if domain.AgeOn(in.DateOfBirth, s.now()) < domain.MinAge {
		return nil, domain.ErrUnderage
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(answer), securityAnswerCost)
	if err != nil {
		return nil, fmt.Errorf("profile setup: hash answer: %w", err)
	}

	user, err := s.repo.UpdateProfile(ctx, userID, domain.ProfileUpdate{
		DateOfBirth:        in.DateOfBirth.UTC(),
		SecurityQuestion:   question,
		SecurityAnswerHash: string(hash),
		PhoneNumber:        phone,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Msg("profile completed")
	return user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"id":           user.ID,
		"email":        user.Email,
		"officialName": user.OfficialName,
		"exp":          s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
