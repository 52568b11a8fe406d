package usecase

import (
	"context"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

// UserRepository abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
// Lookups return domain.ErrUserNotFound when no record matches and wrap I/O
// failures as domain.KindTransient.
type UserRepository interface {
	// Create persists a new user and sets its ID and CreatedAt.
	// It returns domain.ErrEmailAlreadyExists or domain.ErrPhoneAlreadyExists
	// when the unique index rejects the insert.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail retrieves a user by normalized email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByPhone retrieves a phone identity by phone number.
	FindByPhone(ctx context.Context, phone string) (*entity.User, error)

	// FindByID retrieves a user by subject id.
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// SetRefreshToken overwrites the stored refresh token unconditionally.
	SetRefreshToken(ctx context.Context, id, token string) error

	// SwapRefreshToken replaces the stored refresh token only if it still
	// equals old. It reports whether the swap happened.
	SwapRefreshToken(ctx context.Context, id, old, token string) (bool, error)
}

// OTPRepository stores at most one live challenge per phone number.
type OTPRepository interface {
	// Replace stores the challenge, discarding any previous one for the phone.
	Replace(ctx context.Context, challenge *entity.OTPChallenge) error

	// Consume atomically deletes the live challenge for phone if its code
	// equals code and it has not expired at now. It returns
	// domain.ErrChallengeNotFound otherwise.
	Consume(ctx context.Context, phone, code string, now time.Time) error
}

// PasswordHasher is the opaque digest capability.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(digest, password string) bool
}

// TokenSigner signs and parses subject-bound tokens.
type TokenSigner interface {
	// Sign returns a signed token of the given kind for subjectID.
	Sign(subjectID string, kind entity.TokenKind, ttl time.Duration) (string, time.Time, error)

	// Parse verifies the signature and claims of token and returns its subject.
	// A correctly signed token past its expiry returns domain.ErrTokenExpired;
	// every other failure returns domain.ErrTokenInvalid.
	Parse(token string, kind entity.TokenKind) (string, error)
}

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// OutcomeRecorder counts operation outcomes for metrics.
type OutcomeRecorder interface {
	Record(op string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, error) {}
