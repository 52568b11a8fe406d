package dto

import (
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserRes is the public view of a user.
type UserRes struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Email     string    `json:"email,omitempty"`
	PhoneNo   string    `json:"phoneNo,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthRes is returned by /register, /login and /verify-otp.
type AuthRes struct {
	Message      string   `json:"message,omitempty"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"`
	User         *UserRes `json:"user,omitempty"`
}

// RefreshRes represents the response for a successful token refresh.
type RefreshRes struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// NewUserRes converts a domain user to its public view.
func NewUserRes(u *entity.User) *UserRes {
	if u == nil {
		return nil
	}
	return &UserRes{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		PhoneNo:   u.Phone,
		Type:      string(u.Type),
		CreatedAt: u.CreatedAt,
	}
}

// NewAuthRes builds the token response. now is used to compute expiresIn in seconds.
func NewAuthRes(msg string, u *entity.User, p *entity.TokenPair, now time.Time) AuthRes {
	return AuthRes{
		Message:      msg,
		Token:        p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    expiresIn(p.AccessExpiresAt, now),
		User:         NewUserRes(u),
	}
}

// NewRefreshRes builds the rotation response.
func NewRefreshRes(p *entity.TokenPair, now time.Time) RefreshRes {
	return RefreshRes{
		Token:        p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    expiresIn(p.AccessExpiresAt, now),
	}
}

func expiresIn(at, now time.Time) int64 {
	if at.IsZero() || !at.After(now) {
		return 0
	}
	return int64(at.Sub(now).Seconds())
}
