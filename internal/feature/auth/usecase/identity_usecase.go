package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
)

// dummyDigest is compared against when the user does not exist so that a
// login for an unknown email costs the same as one with a wrong password.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// RegisterInput carries the fields accepted by Register.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// identityUsecase registers users and resolves identities.
type identityUsecase struct {
	users  UserRepository
	hasher PasswordHasher
	now    func() time.Time
}

// NewIdentityUsecase creates an identityUsecase.
func NewIdentityUsecase(users UserRepository, hasher PasswordHasher) *identityUsecase {
	return &identityUsecase{users: users, hasher: hasher, now: time.Now}
}

// validEmail accepts a single '@' with a non-empty local part and domain.
func validEmail(email string) bool {
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" || host == "" {
		return false
	}
	return !strings.ContainsAny(host, "@ \t\r\n") && !strings.ContainsAny(local, " \t\r\n")
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return domain.Validation("first name is required")
	case strings.TrimSpace(in.Email) == "":
		return domain.Validation("email is required")
	case in.Password == "":
		return domain.Validation("password is required")
	case len(in.Password) > maxPasswordBytes:
		return domain.Validation("password must be at most 72 bytes")
	case !validEmail(entity.NormalizeEmail(in.Email)):
		return domain.Validation("email is not valid")
	}
	return nil
}

// Register creates an email user. The email is normalized before the
// uniqueness check; the store's unique index catches concurrent inserts.
func (u *identityUsecase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	email := entity.NormalizeEmail(in.Email)

	_, err := u.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrEmailAlreadyExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	digest, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          email,
		PasswordDigest: digest,
		Type:           entity.UserTypeEmail,
		CreatedAt:      u.now().UTC(),
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies an email and password. An unknown email returns
// domain.ErrUserNotFound and a wrong password domain.ErrInvalidCredentials;
// a digest comparison runs in both cases.
func (u *identityUsecase) Login(ctx context.Context, email, password string) (*entity.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	digest := dummyDigest
	if user != nil {
		digest = user.PasswordDigest
	}
	match := u.hasher.Compare(digest, password)

	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if !match {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// FindByEmail looks a user up by email, normalizing it first.
func (u *identityUsecase) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return u.users.FindByEmail(ctx, entity.NormalizeEmail(email))
}

// FindByPhone looks a phone identity up by phone number.
func (u *identityUsecase) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return u.users.FindByPhone(ctx, strings.TrimSpace(phone))
}

// FindByID looks a user up by subject id.
func (u *identityUsecase) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

// EnsurePhoneIdentity returns the identity bound to phone, creating it on the
// first successful verification. A concurrent creation resolves to the
// record that won the unique index.
func (u *identityUsecase) EnsurePhoneIdentity(ctx context.Context, phone string) (*entity.User, error) {
	user, err := u.users.FindByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user = &entity.User{
		Phone:     phone,
		Type:      entity.UserTypePhone,
		CreatedAt: u.now().UTC(),
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrPhoneAlreadyExists) {
			return u.users.FindByPhone(ctx, phone)
		}
		return nil, err
	}
	return user, nil
}
