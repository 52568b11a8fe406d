package entity

import (
	"crypto/subtle"
	"time"
)

// OTPChallenge is the live one-time code bound to a phone number.
// At most one challenge exists per phone; issuing a new one replaces it.
type OTPChallenge struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the challenge is no longer usable at now.
func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Matches compares the submitted code in constant time.
func (c *OTPChallenge) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) == 1
}

// TTL is the lifetime the challenge was issued with.
func (c *OTPChallenge) TTL() time.Duration {
	return c.ExpiresAt.Sub(c.CreatedAt)
}

// VerifiedPhone is the result of a successful OTP verification.
type VerifiedPhone struct {
	Phone      string
	VerifiedAt time.Time
}
