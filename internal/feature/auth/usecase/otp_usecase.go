package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
)

const (
	// otpMin and otpMax bound the generated code. Codes are always rendered
	// as four digits, so the 0000-0999 band is never issued.
	otpMin = 1000
	otpMax = 9999

	// DefaultOTPTTL is the challenge lifetime when none is configured.
	DefaultOTPTTL = 5 * time.Minute
)

// generateOTP returns a uniformly random code in [otpMin, otpMax].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// validPhone accepts 10 to 15 digits with an optional leading '+'.
func validPhone(phone string) bool {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 10 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// otpUsecase issues and verifies phone challenges. It holds no state of its
// own; the repository owns the live challenge.
type otpUsecase struct {
	challenges OTPRepository
	ttl        time.Duration
	now        func() time.Time
	generate   func() (string, error)
}

// NewOTPUsecase creates an otpUsecase. A non-positive ttl uses DefaultOTPTTL.
func NewOTPUsecase(challenges OTPRepository, ttl time.Duration) *otpUsecase {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &otpUsecase{
		challenges: challenges,
		ttl:        ttl,
		now:        time.Now,
		generate:   generateOTP,
	}
}

// Issue creates a challenge for phone, replacing any outstanding one, and
// returns the code for the caller to deliver.
func (u *otpUsecase) Issue(ctx context.Context, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", domain.Validation("phone number is required")
	}
	if !validPhone(phone) {
		return "", domain.Validation("phone number is not valid")
	}

	code, err := u.generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	now := u.now().UTC()
	challenge := &entity.OTPChallenge{
		Phone:     phone,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(u.ttl),
	}
	if err := u.challenges.Replace(ctx, challenge); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes the live challenge for phone when code matches it.
// A missing, expired or mismatching challenge all yield domain.ErrInvalidOTP.
func (u *otpUsecase) Verify(ctx context.Context, phone, code string) (*entity.VerifiedPhone, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return nil, domain.Validation("phone number and OTP are required")
	}

	now := u.now().UTC()
	if err := u.challenges.Consume(ctx, phone, code, now); err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, err
	}
	return &entity.VerifiedPhone{Phone: phone, VerifiedAt: now}, nil
}
