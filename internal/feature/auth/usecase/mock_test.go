package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
)

// memoryUserRepository is an in-memory UserRepository.
// Func fields override the default behavior for error-path tests.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*entity.User
	seq   int

	CreateFunc      func(user *entity.User) error
	FindByEmailFunc func(email string) (*entity.User, error)
	FindByIDFunc    func(id string) (*entity.User, error)
	SetRefreshFunc  func(id, token string) error
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: map[string]*entity.User{}}
}

func (m *memoryUserRepository) Create(_ context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if user.Email != "" && u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
		if user.Phone != "" && u.Phone == user.Phone {
			return domain.ErrPhoneAlreadyExists
		}
	}
	m.seq++
	user.ID = "u" + strconv.Itoa(m.seq)
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUserRepository) find(match func(*entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memoryUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(email)
	}
	return m.find(func(u *entity.User) bool { return u.Email != "" && u.Email == email })
}

func (m *memoryUserRepository) FindByPhone(_ context.Context, phone string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Phone != "" && u.Phone == phone })
}

func (m *memoryUserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return m.find(func(u *entity.User) bool { return u.ID == id })
}

func (m *memoryUserRepository) SetRefreshToken(_ context.Context, id, token string) error {
	if m.SetRefreshFunc != nil {
		return m.SetRefreshFunc(id, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

func (m *memoryUserRepository) SwapRefreshToken(_ context.Context, id, old, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.RefreshToken != old {
		return false, nil
	}
	u.RefreshToken = token
	return true, nil
}

// put inserts a user with a fixed id.
func (m *memoryUserRepository) put(u *entity.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

// memoryOTPRepository is an in-memory OTPRepository.
type memoryOTPRepository struct {
	mu         sync.Mutex
	challenges map[string]*entity.OTPChallenge

	ReplaceFunc func(challenge *entity.OTPChallenge) error
}

func newMemoryOTPRepository() *memoryOTPRepository {
	return &memoryOTPRepository{challenges: map[string]*entity.OTPChallenge{}}
}

func (m *memoryOTPRepository) Replace(_ context.Context, c *entity.OTPChallenge) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.challenges[c.Phone] = &cp
	return nil
}

func (m *memoryOTPRepository) Consume(_ context.Context, phone, code string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[phone]
	if !ok || c.IsExpired(now) || !c.Matches(code) {
		return domain.ErrChallengeNotFound
	}
	delete(m.challenges, phone)
	return nil
}

// mockHasher prefixes passwords instead of hashing them.
type mockHasher struct {
	HashFunc func(password string) (string, error)
	compared int
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(digest, password string) bool {
	m.compared++
	return digest == "hashed:"+password
}

// fakeSigner produces readable tokens of the form kind|subject|exp|seq and
// validates them against its own clock.
type fakeSigner struct {
	mu  sync.Mutex
	seq int
	now func() time.Time

	SignFunc func(subjectID string, kind entity.TokenKind) (string, error)
}

func newFakeSigner(now func() time.Time) *fakeSigner {
	return &fakeSigner{now: now}
}

func (s *fakeSigner) Sign(subjectID string, kind entity.TokenKind, ttl time.Duration) (string, time.Time, error) {
	if s.SignFunc != nil {
		tok, err := s.SignFunc(subjectID, kind)
		return tok, time.Time{}, err
	}
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()
	exp := s.now().Add(ttl)
	return fmt.Sprintf("%s|%s|%d|%d", kind, subjectID, exp.UnixNano(), seq), exp, nil
}

func (s *fakeSigner) Parse(token string, kind entity.TokenKind) (string, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != string(kind) {
		return "", domain.ErrTokenInvalid
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", domain.ErrTokenInvalid
	}
	if !s.now().Before(time.Unix(0, exp)) {
		return "", domain.ErrTokenExpired
	}
	return parts[1], nil
}

// mockSender records delivered messages.
type mockSender struct {
	mu       sync.Mutex
	SendFunc func(to, body string) error
	sent     []string
}

func (m *mockSender) Send(_ context.Context, to, body string) error {
	if m.SendFunc != nil {
		return m.SendFunc(to, body)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+": "+body)
	return nil
}

// recordingRecorder captures recorded outcomes.
type recordingRecorder struct {
	mu      sync.Mutex
	records []string
}

func (r *recordingRecorder) Record(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	r.records = append(r.records, op+":"+outcome)
}

// testClock is a settable clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
