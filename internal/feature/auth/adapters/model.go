// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"auth_backend/internal/feature/auth/domain/entity"
)

// UserModel is the GORM model for the users table.
// Email and Phone are nullable so that the unique indexes only apply to set values.
type UserModel struct {
	ID             string  `gorm:"primaryKey;size:36"`
	FirstName      string  `gorm:"size:100"`
	LastName       string  `gorm:"size:100"`
	Email          *string `gorm:"uniqueIndex;size:255"`
	Phone          *string `gorm:"uniqueIndex;size:20"`
	PasswordDigest string  `gorm:"size:255"`
	RefreshToken   string  `gorm:"size:1024"`
	Type           string  `gorm:"size:16;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when the caller has not set one.
func (m *UserModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:             m.ID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Email:          deref(m.Email),
		Phone:          deref(m.Phone),
		PasswordDigest: m.PasswordDigest,
		RefreshToken:   m.RefreshToken,
		Type:           entity.UserType(m.Type),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// UserModelFromEntity converts a domain entity to a GORM model.
func UserModelFromEntity(u *entity.User) *UserModel {
	return &UserModel{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          nullable(u.Email),
		Phone:          nullable(u.Phone),
		PasswordDigest: u.PasswordDigest,
		RefreshToken:   u.RefreshToken,
		Type:           string(u.Type),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// OTPChallengeModel is the GORM model for the otp_challenges table.
// The phone number is the primary key, so a phone has at most one row.
type OTPChallengeModel struct {
	Phone     string    `gorm:"primaryKey;size:20"`
	Code      string    `gorm:"size:8;not null"`
	IssuedAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

// TableName returns the table name for GORM.
func (OTPChallengeModel) TableName() string {
	return "otp_challenges"
}

// OTPChallengeModelFromEntity converts a domain entity to a GORM model.
// Times are stored in UTC so that expiry comparisons are consistent across drivers.
func OTPChallengeModelFromEntity(c *entity.OTPChallenge) *OTPChallengeModel {
	return &OTPChallengeModel{
		Phone:     c.Phone,
		Code:      c.Code,
		IssuedAt:  c.CreatedAt.UTC(),
		ExpiresAt: c.ExpiresAt.UTC(),
	}
}

// Models lists every table owned by the auth feature, in migration order.
func Models() []any {
	return []any{&UserModel{}, &OTPChallengeModel{}}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
