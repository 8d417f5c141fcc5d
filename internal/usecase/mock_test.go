//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/domain/ports/adapter"
	"lingotube-backend/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- Mock ActivationCodeRepository ----

type MockActivationCodeRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.ActivationCode
	byCode map[string]*model.ActivationCode

	SaveFunc         func(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error
	FindByCodeFunc   func(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error)
	FindByIDFunc     func(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error)
	ExistsByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (bool, error)
}

var _ repository.ActivationCodeRepository = (*MockActivationCodeRepo)(nil)

func NewMockActivationCodeRepo() *MockActivationCodeRepo {
	return &MockActivationCodeRepo{
		byID:   map[string]*model.ActivationCode{},
		byCode: map[string]*model.ActivationCode{},
	}
}

func (r *MockActivationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *code
	r.byID[cp.ID] = &cp
	r.byCode[cp.Code] = &cp
	return nil
}

func (r *MockActivationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	if r.FindByCodeFunc != nil {
		return r.FindByCodeFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byCode[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockActivationCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockActivationCodeRepo) ExistsByCode(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	if r.ExistsByCodeFunc != nil {
		return r.ExistsByCodeFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byCode[code]
	return ok, nil
}

// Get returns the stored copy for assertions.
func (r *MockActivationCodeRepo) Get(code string) *model.ActivationCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCode[code]
}

// ---- Mock ActivationSessionRepository ----

type MockActivationSessionRepo struct {
	mu   sync.Mutex
	byID map[string]*model.ActivationSession

	SaveFunc               func(ctx context.Context, tx repository.Tx, s *model.ActivationSession) error
	FindUnusedByTokenFunc  func(ctx context.Context, tx repository.Tx, token string) (*model.ActivationSession, error)
	DeleteUnusedByCodeFunc func(ctx context.Context, tx repository.Tx, codeID string) error
}

var _ repository.ActivationSessionRepository = (*MockActivationSessionRepo)(nil)

func NewMockActivationSessionRepo() *MockActivationSessionRepo {
	return &MockActivationSessionRepo{byID: map[string]*model.ActivationSession{}}
}

func (r *MockActivationSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.ActivationSession) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockActivationSessionRepo) FindUnusedByToken(ctx context.Context, tx repository.Tx, token string) (*model.ActivationSession, error) {
	if r.FindUnusedByTokenFunc != nil {
		return r.FindUnusedByTokenFunc(ctx, tx, token)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.Token == token && !s.IsUsed {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockActivationSessionRepo) DeleteUnusedByCode(ctx context.Context, tx repository.Tx, codeID string) error {
	if r.DeleteUnusedByCodeFunc != nil {
		return r.DeleteUnusedByCodeFunc(ctx, tx, codeID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		if s.CodeID == codeID && !s.IsUsed {
			delete(r.byID, id)
		}
	}
	return nil
}

// UnusedCount reports how many live sessions exist for the code.
func (r *MockActivationSessionRepo) UnusedCount(codeID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.byID {
		if s.CodeID == codeID && !s.IsUsed {
			n++
		}
	}
	return n
}

// ---- Mock SMSCodeRepository ----

type MockSMSCodeRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.SMSCode
	locked []string

	AcquirePhoneLockFunc        func(ctx context.Context, tx repository.Tx, phone string) error
	SaveFunc                    func(ctx context.Context, tx repository.Tx, c *model.SMSCode) error
	FindLatestUnusedByPhoneFunc func(ctx context.Context, tx repository.Tx, phone string) (*model.SMSCode, error)
	DeleteByPhoneFunc           func(ctx context.Context, tx repository.Tx, phone string) error
}

var _ repository.SMSCodeRepository = (*MockSMSCodeRepo)(nil)

func NewMockSMSCodeRepo() *MockSMSCodeRepo {
	return &MockSMSCodeRepo{byID: map[string]*model.SMSCode{}}
}

func (r *MockSMSCodeRepo) AcquirePhoneLock(ctx context.Context, tx repository.Tx, phone string) error {
	if r.AcquirePhoneLockFunc != nil {
		return r.AcquirePhoneLockFunc(ctx, tx, phone)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = append(r.locked, phone)
	return nil
}

// Locked returns the phones locked so far, in order.
func (r *MockSMSCodeRepo) Locked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.locked...)
}

func (r *MockSMSCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.SMSCode) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockSMSCodeRepo) FindLatestUnusedByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.SMSCode, error) {
	if r.FindLatestUnusedByPhoneFunc != nil {
		return r.FindLatestUnusedByPhoneFunc(ctx, tx, phone)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.SMSCode
	for _, c := range r.byID {
		if c.Phone != phone || c.IsUsed {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) || (c.CreatedAt.Equal(latest.CreatedAt) && c.ID > latest.ID) {
			latest = c
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *MockSMSCodeRepo) DeleteByPhone(ctx context.Context, tx repository.Tx, phone string) error {
	if r.DeleteByPhoneFunc != nil {
		return r.DeleteByPhoneFunc(ctx, tx, phone)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.byID {
		if c.Phone == phone {
			delete(r.byID, id)
		}
	}
	return nil
}

// Count reports how many records exist for a phone, used or not.
func (r *MockSMSCodeRepo) Count(phone string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.byID {
		if c.Phone == phone {
			n++
		}
	}
	return n
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User

	SaveFunc           func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc       func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	FindByPhoneFunc    func(ctx context.Context, tx repository.Tx, phone string) (*model.User, error)
	FindByUsernameFunc func(ctx context.Context, tx repository.Tx, username string) (*model.User, error)
	FindByEmailFunc    func(ctx context.Context, tx repository.Tx, email string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.User, error) {
	if r.FindByPhoneFunc != nil {
		return r.FindByPhoneFunc(ctx, tx, phone)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Phone != nil && *u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	if r.FindByUsernameFunc != nil {
		return r.FindByUsernameFunc(ctx, tx, username)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username != nil && *u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	if r.FindByEmailFunc != nil {
		return r.FindByEmailFunc(ctx, tx, email)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Len reports how many users were persisted.
func (r *MockUserRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// ---- Mock VideoRepository ----

type MockVideoRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Video

	FindByIDFunc     func(ctx context.Context, tx repository.Tx, id string) (*model.Video, error)
	FindByFileIDFunc func(ctx context.Context, tx repository.Tx, fileID string) (*model.Video, error)
}

var _ repository.VideoRepository = (*MockVideoRepo)(nil)

func NewMockVideoRepo() *MockVideoRepo {
	return &MockVideoRepo{byID: map[string]*model.Video{}}
}

func (r *MockVideoRepo) Save(ctx context.Context, tx repository.Tx, v *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockVideoRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Video, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.byID[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockVideoRepo) FindByFileID(ctx context.Context, tx repository.Tx, fileID string) (*model.Video, error) {
	if r.FindByFileIDFunc != nil {
		return r.FindByFileIDFunc(ctx, tx, fileID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.byID {
		if v.VodFileID != nil && *v.VodFileID == fileID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// =============================
// Transaction manager
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately with NoTX. Tests that need to fail or
// observe the transaction assign WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock SMSGateway ----

type sentSMS struct {
	Phone string
	Code  string
}

type MockSMSGateway struct {
	mu   sync.Mutex
	Sent []sentSMS

	SendFunc func(ctx context.Context, phone, code string) error
}

var _ adapter.SMSGateway = (*MockSMSGateway)(nil)

func (g *MockSMSGateway) Name() string { return "mock" }

func (g *MockSMSGateway) Send(ctx context.Context, phone, code string) error {
	if g.SendFunc != nil {
		return g.SendFunc(ctx, phone, code)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Sent = append(g.Sent, sentSMS{Phone: phone, Code: code})
	return nil
}

// ---- Mock TokenIssuer ----

type MockTokenIssuer struct {
	IssueFunc func(u *model.User) (string, error)
}

var _ adapter.TokenIssuer = (*MockTokenIssuer)(nil)

func (m *MockTokenIssuer) Issue(u *model.User) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(u)
	}
	return "token-" + u.ID, nil
}

// ---- Mock SendLimiter ----

type MockSendLimiter struct {
	mu    sync.Mutex
	Calls int

	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *MockSendLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}

// =============================
// Helpers
// =============================

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
