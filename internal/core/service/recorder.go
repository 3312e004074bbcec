package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/titantech/kyc-gateway/internal/api/metrics"
	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

type verificationRecorder struct {
	users     ports.UserRepository
	events    ports.VerificationEventRepository
	dedup     ports.CodeDedup
	publisher ports.EventPublisher
	log       zerolog.Logger
}

// NewVerificationRecorder returns a VerificationRecorder implementation.
func NewVerificationRecorder(
	users ports.UserRepository,
	events ports.VerificationEventRepository,
	dedup ports.CodeDedup,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) ports.VerificationRecorder {
	return &verificationRecorder{
		users:     users,
		events:    events,
		dedup:     dedup,
		publisher: publisher,
		log:       log,
	}
}

// Record marks the user verified with job.Code. Repeating the code the user
// already holds is a no-op that returns the current user; any other code is
// written, so the last save wins.
func (r *verificationRecorder) Record(ctx context.Context, job ports.VerificationJob) (*domain.User, error) {
	if job.UserID == "" || job.Code == "" {
		return nil, domain.NewValidationError("verificationCode", "Verification code is required")
	}
	if job.VerifiedAt.IsZero() {
		job.VerifiedAt = time.Now().UTC()
	}

	// 1. Idempotency check; a dedup outage does not block the write.
	if current, ok := r.alreadyRecorded(ctx, job); ok {
		r.log.Debug().Str("user_id", job.UserID).Msg("verification code already recorded")
		metrics.VerificationsTotal.WithLabelValues("duplicate").Inc()
		return current, nil
	}

	// 2. Single-document write, last write wins.
	user, err := r.users.UpdateVerification(ctx, job.UserID, domain.VerificationUpdate{
		Verified:   true,
		Code:       job.Code,
		VerifiedAt: job.VerifiedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("record verification: %w", err)
	}

	if err := r.dedup.Mark(ctx, job.UserID, job.Code); err != nil {
		r.log.Warn().Err(err).Str("user_id", job.UserID).Msg("failed to set dedup key")
	}

	// 3. Announce and audit; neither fails the request.
	if err := r.publisher.PublishVerificationCompleted(ctx, ports.VerificationCompleted{
		UserID:     job.UserID,
		SessionID:  job.SessionID,
		Code:       job.Code,
		VerifiedAt: job.VerifiedAt,
		Source:     job.Source,
	}); err != nil {
		r.log.Warn().Err(err).Str("user_id", job.UserID).Msg("failed to publish verification event")
	}

	if err := r.events.InsertEvent(ctx, &domain.VerificationEvent{
		UserID:     job.UserID,
		SessionID:  job.SessionID,
		Stage:      domain.StageCompleted,
		Message:    "verification recorded via " + job.Source,
		OccurredAt: job.VerifiedAt,
	}); err != nil {
		r.log.Warn().Err(err).Str("user_id", job.UserID).Msg("failed to insert audit event")
	}

	metrics.VerificationsTotal.WithLabelValues("recorded").Inc()
	r.log.Info().
		Str("user_id", job.UserID).
		Str("session_id", job.SessionID).
		Str("source", job.Source).
		Msg("verification recorded")

	return user, nil
}

// alreadyRecorded is true when the dedup marker and the stored user both
// carry job.Code. A stale marker falls through to a write.
func (r *verificationRecorder) alreadyRecorded(ctx context.Context, job ports.VerificationJob) (*domain.User, bool) {
	isDup, err := r.dedup.IsDuplicate(ctx, job.UserID, job.Code)
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", job.UserID).Msg("dedup check failed, recording anyway")
		return nil, false
	}
	if !isDup {
		return nil, false
	}
	current, err := r.users.FindByID(ctx, job.UserID)
	if err != nil {
		return nil, false
	}
	if !current.DigilockerVerified || current.DigilockerVerificationCode != job.Code {
		return nil, false
	}
	return current, true
}
