// Package domain defines domain-level errors for the auth feature.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so that transports can map it to a status
// without inspecting messages.
type Kind int

const (
	// KindUnknown is an unclassified failure (treated as a server error).
	KindUnknown Kind = iota
	// KindValidation is malformed or missing input. Never retried.
	KindValidation
	// KindConflict is a uniqueness violation. Never retried.
	KindConflict
	// KindNotFound means no matching record exists.
	KindNotFound
	// KindAuth is a bad credential or an expired, invalid or replayed token.
	KindAuth
	// KindTransient is an I/O failure against the store. The caller may retry.
	KindTransient
)

// String returns the lowercase name of the kind, used as a metrics label.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every auth operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Domain errors for authentication operations.
// These errors represent business logic failures and should be handled appropriately by upper layers.
var (
	// ErrEmailAlreadyExists indicates that a user with the given email already exists.
	// This is returned during signup when attempting to create a duplicate user.
	ErrEmailAlreadyExists = &Error{Kind: KindConflict, Msg: "user with this email already exists"}

	// ErrPhoneAlreadyExists indicates that a phone identity was inserted twice.
	ErrPhoneAlreadyExists = &Error{Kind: KindConflict, Msg: "user with this phone number already exists"}

	// ErrUserNotFound indicates that no user was found with the given criteria.
	// This is typically returned during login or user lookup operations.
	ErrUserNotFound = &Error{Kind: KindNotFound, Msg: "user not found"}

	// ErrInvalidCredentials indicates that the provided password is incorrect.
	ErrInvalidCredentials = &Error{Kind: KindAuth, Msg: "invalid email or password"}

	// ErrChallengeNotFound is returned by OTP stores when no live challenge
	// matches the phone and code.
	ErrChallengeNotFound = &Error{Kind: KindNotFound, Msg: "otp challenge not found"}

	// ErrInvalidOTP is the single outcome of a failed OTP verification. It does
	// not say whether the phone or the code was wrong.
	ErrInvalidOTP = &Error{Kind: KindAuth, Msg: "invalid OTP or phone number"}

	// ErrTokenInvalid covers bad signatures, malformed tokens, wrong token
	// types and refresh tokens that no longer match the stored value.
	ErrTokenInvalid = &Error{Kind: KindAuth, Msg: "invalid token"}

	// ErrTokenExpired is returned for a correctly signed token past its exp claim.
	ErrTokenExpired = &Error{Kind: KindAuth, Msg: "token expired"}

	// ErrUnauthenticated is the uniform rejection produced by the gateway.
	ErrUnauthenticated = &Error{Kind: KindAuth, Msg: "unauthorized"}
)

// Validation returns a KindValidation error with an actionable message.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Transient wraps a store I/O failure.
func Transient(op string, err error) error {
	return &Error{Kind: KindTransient, Msg: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
