package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/titantech/kyc-gateway/internal/api/metrics"
	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

const (
	SourceInitialize = "initialize"
	SourceDownload   = "download"
	SourceSave       = "save"
	SourceConfirm    = "confirm"
)

// VerificationOptions tunes the orchestrator. Zero values pick the defaults.
type VerificationOptions struct {
	// Optimistic generates the code on initialize and records it in the
	// background before any document has been retrieved.
	Optimistic bool
	NewCode    CodeGenerator
	NewID      func() string
	Now        func() time.Time
}

type verificationService struct {
	vendor   ports.KYCVendor
	sessions ports.SessionStore
	users    ports.UserRepository
	events   ports.VerificationEventRepository
	recorder ports.VerificationRecorder
	jobs     ports.JobQueue
	opts     VerificationOptions
	log      zerolog.Logger
}

// NewVerificationService returns a VerificationService implementation.
// jobs may be nil unless opts.Optimistic is set.
func NewVerificationService(
	vendor ports.KYCVendor,
	sessions ports.SessionStore,
	users ports.UserRepository,
	events ports.VerificationEventRepository,
	recorder ports.VerificationRecorder,
	jobs ports.JobQueue,
	opts VerificationOptions,
	log zerolog.Logger,
) ports.VerificationService {
	if opts.NewCode == nil {
		opts.NewCode = NewVerificationCode
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &verificationService{
		vendor:   vendor,
		sessions: sessions,
		users:    users,
		events:   events,
		recorder: recorder,
		jobs:     jobs,
		opts:     opts,
		log:      log,
	}
}

// Initialize validates the contact details, opens a vendor session and stores
// it server-side. Invalid input never reaches the vendor.
func (s *verificationService) Initialize(ctx context.Context, userID string, in ports.InitializeInput) (*ports.InitializeResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.MobileNumber = strings.TrimSpace(in.MobileNumber)
	if err := domain.ValidateContact(in.FullName, in.Email, in.MobileNumber); err != nil {
		return nil, err
	}

	sess := &domain.VerificationSession{
		ID:     s.opts.NewID(),
		UserID: userID,
		Stage:  domain.StageInitializing,
	}
	s.audit(ctx, sess, "")

	vs, err := s.vendor.Initialize(ctx, in)
	if err != nil {
		sess.Stage = domain.StageFailed
		s.audit(ctx, sess, err.Error())
		return nil, fmt.Errorf("initialize: %w", err)
	}

	now := s.opts.Now()
	ttl := vs.TTL()
	sess.ClientID = vs.ClientID
	sess.Token = vs.Token
	sess.RedirectURL = vs.URL
	sess.Stage = domain.StageAwaitingUserAuthorization
	sess.CreatedAt = now
	sess.ExpiresAt = now.Add(ttl)

	res := &ports.InitializeResult{
		SessionID:     sess.ID,
		ClientID:      vs.ClientID,
		URL:           vs.URL,
		ExpirySeconds: vs.ExpirySeconds,
		TTL:           ttl,
	}

	if s.opts.Optimistic {
		if code, err := s.opts.NewCode(now); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to generate verification code")
		} else {
			sess.VerificationCode = code
			res.VerificationCode = code
		}
	}

	if err := s.sessions.Save(ctx, sess, ttl); err != nil {
		return nil, fmt.Errorf("initialize: save session: %w", err)
	}
	s.audit(ctx, sess, "")

	if res.VerificationCode != "" && s.jobs != nil {
		s.jobs.Enqueue(ports.VerificationJob{
			UserID:     userID,
			SessionID:  sess.ID,
			Code:       res.VerificationCode,
			VerifiedAt: now,
			Source:     SourceInitialize,
		})
	}

	s.log.Info().
		Str("user_id", userID).
		Str("session_id", sess.ID).
		Str("client_id", sess.ClientID).
		Dur("ttl", ttl).
		Msg("verification session started")

	return res, nil
}

// ListDocuments fetches and classifies the documents the user shared. When
// either required document is absent the listing is still returned inside a
// *domain.MissingDocumentsError.
func (s *verificationService) ListDocuments(ctx context.Context, userID, sessionID string) (*ports.DocumentList, error) {
	sess, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ClientID == "" || sess.Token == "" {
		return nil, domain.ErrSessionNotFound
	}
	if err := s.transition(ctx, sess, domain.StageListingDocuments); err != nil {
		return nil, err
	}

	docs, err := s.vendor.ListDocuments(ctx, sess.ClientID)
	if err != nil {
		s.fail(ctx, sess, err)
		return nil, fmt.Errorf("list documents: %w", err)
	}

	c := ClassifyDocuments(docs)
	sess.AadhaarFileID = c.AadhaarFileID
	sess.PANFileID = c.PANFileID

	if missing := c.Missing(); len(missing) > 0 {
		mErr := &domain.MissingDocumentsError{
			Missing:       missing,
			Documents:     docs,
			AadhaarFileID: c.AadhaarFileID,
			PANFileID:     c.PANFileID,
		}
		s.fail(ctx, sess, mErr)
		metrics.VerificationsTotal.WithLabelValues("missing_documents").Inc()
		return nil, mErr
	}

	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("list documents: update session: %w", err)
	}

	return &ports.DocumentList{
		Documents:     docs,
		AadhaarFileID: c.AadhaarFileID,
		PANFileID:     c.PANFileID,
	}, nil
}

// DownloadDocuments fetches both document links concurrently. It succeeds only
// when both links are usable; then the verification code is recorded unless it
// was already handed to the background queue on initialize.
func (s *verificationService) DownloadDocuments(ctx context.Context, userID, sessionID, aadhaarFileID, panFileID string) (*ports.DownloadResult, error) {
	if aadhaarFileID == "" || panFileID == "" {
		return nil, domain.NewValidationError("fileId", "Both Aadhaar and PAN file IDs are required")
	}

	sess, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, sess, domain.StageDownloading); err != nil {
		return nil, err
	}

	var (
		g            errgroup.Group
		aadhaar, pan *domain.DownloadLink
		aErr, pErr   error
	)
	// Each branch keeps its own error so one failure does not hide the other link.
	g.Go(func() error {
		aadhaar, aErr = s.vendor.DownloadDocument(ctx, sess.ClientID, aadhaarFileID)
		return nil
	})
	g.Go(func() error {
		pan, pErr = s.vendor.DownloadDocument(ctx, sess.ClientID, panFileID)
		return nil
	})
	_ = g.Wait()

	cause := multierr.Combine(
		wrapDoc(domain.DocumentAadhaar, aErr),
		wrapDoc(domain.DocumentPAN, pErr),
	)
	if aadhaar == nil && pan == nil {
		s.fail(ctx, sess, cause)
		metrics.VerificationsTotal.WithLabelValues("download_failed").Inc()
		return nil, fmt.Errorf("download documents: %w", cause)
	}
	if !aadhaar.Usable() || !pan.Usable() {
		partial := &domain.PartialDownloadError{Aadhaar: aadhaar, PAN: pan, Cause: cause}
		s.fail(ctx, sess, partial)
		metrics.VerificationsTotal.WithLabelValues("download_failed").Inc()
		return nil, partial
	}

	now := s.opts.Now()
	// generated is set when the code is issued here rather than at initialize,
	// in which case no queued job exists to record it.
	generated := sess.VerificationCode == ""
	if generated {
		code, err := s.opts.NewCode(now)
		if err != nil {
			s.fail(ctx, sess, err)
			return nil, fmt.Errorf("download documents: generate code: %w", err)
		}
		sess.VerificationCode = code
		if err := s.sessions.Update(ctx, sess); err != nil {
			return nil, fmt.Errorf("download documents: update session: %w", err)
		}
	}

	if !s.opts.Optimistic || generated {
		if _, err := s.recorder.Record(ctx, ports.VerificationJob{
			UserID:     userID,
			SessionID:  sess.ID,
			Code:       sess.VerificationCode,
			VerifiedAt: now,
			Source:     SourceDownload,
		}); err != nil {
			s.fail(ctx, sess, err)
			return nil, fmt.Errorf("download documents: %w", err)
		}
	}

	if err := s.transition(ctx, sess, domain.StageCompleted); err != nil {
		return nil, err
	}
	metrics.VerificationsTotal.WithLabelValues("completed").Inc()

	return &ports.DownloadResult{
		Aadhaar:          aadhaar,
		PAN:              pan,
		VerificationCode: sess.VerificationCode,
	}, nil
}

// SaveVerification records a code supplied by the caller.
func (s *verificationService) SaveVerification(ctx context.Context, userID, code string) (*domain.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewValidationError("verificationCode", "Verification code is required")
	}
	return s.recorder.Record(ctx, ports.VerificationJob{
		UserID:     userID,
		Code:       code,
		VerifiedAt: s.opts.Now(),
		Source:     SourceSave,
	})
}

// ConfirmVerification checks a code against the one stored for email.
func (s *verificationService) ConfirmVerification(ctx context.Context, email, code string) error {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return domain.NewValidationError("verificationCode", "Email and verification code are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.DigilockerVerificationCode != code {
		return domain.NewValidationError("verificationCode", "Invalid verification code")
	}
	if user.DigilockerVerified {
		return nil
	}

	_, err = s.recorder.Record(ctx, ports.VerificationJob{
		UserID:     user.ID,
		Code:       code,
		VerifiedAt: s.opts.Now(),
		Source:     SourceConfirm,
	})
	return err
}

// VerifyPAN looks up a PAN number with the vendor.
func (s *verificationService) VerifyPAN(ctx context.Context, idNumber string) (*domain.PANDetails, error) {
	idNumber = strings.ToUpper(strings.TrimSpace(idNumber))
	if idNumber == "" {
		return nil, domain.NewValidationError("id_number", "PAN number is required")
	}
	details, err := s.vendor.VerifyPAN(ctx, idNumber)
	if err != nil {
		return nil, fmt.Errorf("verify pan: %w", err)
	}
	return details, nil
}

func (s *verificationService) loadSession(ctx context.Context, userID, sessionID string) (*domain.VerificationSession, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// transition moves sess to next, persists it and writes an audit event.
func (s *verificationService) transition(ctx context.Context, sess *domain.VerificationSession, next domain.VerificationStage) error {
	if !sess.Stage.CanTransitionTo(next) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidStage, sess.Stage, next)
	}
	sess.Stage = next
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	s.audit(ctx, sess, "")
	return nil
}

// fail moves sess to failed. Errors here are logged only; cause is what the caller reports.
func (s *verificationService) fail(ctx context.Context, sess *domain.VerificationSession, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	sess.Stage = domain.StageFailed
	ctx = context.WithoutCancel(ctx)
	if err := s.sessions.Update(ctx, sess); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to mark session failed")
	}
	s.audit(ctx, sess, msg)
	s.log.Warn().
		Str("user_id", sess.UserID).
		Str("session_id", sess.ID).
		Str("reason", msg).
		Msg("verification failed")
}

func (s *verificationService) audit(ctx context.Context, sess *domain.VerificationSession, msg string) {
	if s.events == nil {
		return
	}
	err := s.events.InsertEvent(ctx, &domain.VerificationEvent{
		UserID:     sess.UserID,
		SessionID:  sess.ID,
		ClientID:   sess.ClientID,
		Stage:      sess.Stage,
		Message:    msg,
		OccurredAt: s.opts.Now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to insert audit event")
	}
}

func wrapDoc(doc string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", doc, err)
}
