// Package entity defines the domain entities for the auth feature.
package entity

import (
	"strings"
	"time"
)

// UserType records which channel created the identity.
type UserType string

const (
	// UserTypeEmail is a user registered with email and password.
	UserTypeEmail UserType = "email"
	// UserTypePhone is an identity created by a successful OTP verification.
	UserTypePhone UserType = "phone"
)

// User represents a registered user in the system.
// It contains authentication credentials and metadata for user management.
type User struct {
	// ID is the store-assigned opaque identifier. It is the token subject.
	ID string `json:"id"`

	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`

	// Email is normalized with NormalizeEmail and unique across all users.
	// Empty for phone identities.
	Email string `json:"email,omitempty"`

	// Phone is unique across phone identities. Empty for email users.
	Phone string `json:"phoneNo,omitempty"`

	// PasswordDigest is the bcrypt digest. It is never serialized.
	PasswordDigest string `json:"-"`

	// RefreshToken is the single live refresh token for this subject.
	// It is never serialized.
	RefreshToken string `json:"-"`

	Type UserType `json:"type"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"-"`
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
