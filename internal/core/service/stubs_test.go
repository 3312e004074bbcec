package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
	// updateErr, if set, is returned by UpdateVerification.
	updateErr error
	updates   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = "user_" + strconv.Itoa(r.nextID)
	r.users[created.ID] = created
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, p domain.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.DateOfBirth = p.DateOfBirth
	u.SecurityQuestion = p.SecurityQuestion
	u.SecurityAnswerHash = p.SecurityAnswerHash
	u.PhoneNumber = p.PhoneNumber
	u.ProfileComplete = true
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateVerification(_ context.Context, id string, v domain.VerificationUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	r.updates++
	u.DigilockerVerified = v.Verified
	u.DigilockerVerificationCode = v.Code
	u.DigilockerVerifiedAt = v.VerifiedAt
	return cloneUser(u), nil
}

func (r *stubUserRepo) seed(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if u.ID == "" {
		u.ID = "user_" + strconv.Itoa(r.nextID)
	}
	r.users[u.ID] = cloneUser(u)
	return u
}

type stubEventRepo struct {
	mu        sync.Mutex
	insertErr error
	inserted  []*domain.VerificationEvent
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.VerificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

func (r *stubEventRepo) stages() []domain.VerificationStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.VerificationStage, 0, len(r.inserted))
	for _, e := range r.inserted {
		out = append(out, e.Stage)
	}
	return out
}

type stubDedup struct {
	mu      sync.Mutex
	last    map[string]string
	dupErr  error
	markErr error
}

func newStubDedup() *stubDedup {
	return &stubDedup{last: make(map[string]string)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, userID, code string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dupErr != nil {
		return false, d.dupErr
	}
	last, ok := d.last[userID]
	return ok && last == code, nil
}

func (d *stubDedup) Mark(_ context.Context, userID, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.markErr != nil {
		return d.markErr
	}
	d.last[userID] = code
	return nil
}

type stubPublisher struct {
	mu         sync.Mutex
	publishErr error
	published  []ports.VerificationCompleted
}

func (p *stubPublisher) PublishVerificationCompleted(_ context.Context, e ports.VerificationCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, e)
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.VerificationSession
	ttls     map[string]time.Duration
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: make(map[string]domain.VerificationSession),
		ttls:     make(map[string]time.Duration),
	}
}

func (m *memSessionStore) Save(_ context.Context, s *domain.VerificationSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	m.ttls[s.ID] = ttl
	return nil
}

func (m *memSessionStore) Get(_ context.Context, id string) (*domain.VerificationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessionStore) Update(_ context.Context, s *domain.VerificationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessionStore) stage(id string) domain.VerificationStage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id].Stage
}

type stubVendor struct {
	mu sync.Mutex

	initSession *domain.VendorSession
	initErr     error
	initCalls   int

	docs    []domain.Document
	listErr error

	// links and downloadErrs are keyed by file id.
	links        map[string]*domain.DownloadLink
	downloadErrs map[string]error
	downloads    []string

	pan    *domain.PANDetails
	panErr error
}

func (v *stubVendor) Initialize(_ context.Context, _ ports.InitializeInput) (*domain.VendorSession, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.initCalls++
	if v.initErr != nil {
		return nil, v.initErr
	}
	s := *v.initSession
	return &s, nil
}

func (v *stubVendor) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return v.docs, v.listErr
}

func (v *stubVendor) DownloadDocument(_ context.Context, _ string, fileID string) (*domain.DownloadLink, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.downloads = append(v.downloads, fileID)
	if err := v.downloadErrs[fileID]; err != nil {
		return nil, err
	}
	if l, ok := v.links[fileID]; ok {
		return l, nil
	}
	return &domain.DownloadLink{}, nil
}

func (v *stubVendor) VerifyPAN(_ context.Context, _ string) (*domain.PANDetails, error) {
	return v.pan, v.panErr
}

type stubQueue struct {
	mu   sync.Mutex
	jobs []ports.VerificationJob
}

func (q *stubQueue) Enqueue(job ports.VerificationJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}
