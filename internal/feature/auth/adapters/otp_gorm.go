package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// otpGorm stores OTP challenges in the relational database.
// It is used when Redis is not configured.
type otpGorm struct {
	db *gorm.DB
}

var _ usecase.OTPRepository = (*otpGorm)(nil)

// NewOTPGorm creates an OTP repository backed by db.
func NewOTPGorm(db *gorm.DB) *otpGorm {
	return &otpGorm{db: db}
}

// Replace upserts the challenge for its phone number.
func (r *otpGorm) Replace(ctx context.Context, c *entity.OTPChallenge) error {
	if c == nil || c.Phone == "" {
		return domain.Validation("challenge phone is required")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "issued_at", "expires_at"}),
	}).Create(OTPChallengeModelFromEntity(c)).Error
	if err != nil {
		return domain.Transient("replace otp challenge", err)
	}
	return nil
}

// Consume deletes the matching live challenge in a single statement.
// Two concurrent calls with the same code cannot both succeed.
func (r *otpGorm) Consume(ctx context.Context, phone, code string, now time.Time) error {
	res := r.db.WithContext(ctx).
		Where("phone = ? AND code = ? AND expires_at > ?", phone, code, now.UTC()).
		Delete(&OTPChallengeModel{})
	if res.Error != nil {
		return domain.Transient("consume otp challenge", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

// PurgeExpired removes challenges that expired before now and reports how many were deleted.
func (r *otpGorm) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&OTPChallengeModel{})
	if res.Error != nil {
		return 0, domain.Transient("purge otp challenges", res.Error)
	}
	return res.RowsAffected, nil
}
