package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQLとSQLiteの両方で動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加し、IDと作成日時を設定します。
// ユニークインデックスの重複時は、設定されている識別子に応じて
// domain.ErrEmailAlreadyExists または domain.ErrPhoneAlreadyExists を返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return domain.Validation("user is nil")
	}
	m := UserModelFromEntity(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			if u.Email != "" {
				return domain.ErrEmailAlreadyExists
			}
			return domain.ErrPhoneAlreadyExists
		}
		return domain.Transient("create user", err)
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "find user by email", "email = ?", email)
}

// FindByPhone は電話番号でユーザーを取得します。
func (r *userGorm) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.first(ctx, "find user by phone", "phone = ?", phone)
}

// FindByID はIDでユーザーを取得します。
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.first(ctx, "find user by id", "id = ?", id)
}

func (r *userGorm) first(ctx context.Context, op, query string, arg any) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Transient(op, err)
	}
	return m.ToEntity(), nil
}

// SetRefreshToken はリフレッシュトークンを無条件に上書きします。
func (r *userGorm) SetRefreshToken(ctx context.Context, id, token string) error {
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Update("refresh_token", token)
	if res.Error != nil {
		return domain.Transient("set refresh token", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SwapRefreshToken は保存済みトークンがoldと一致する場合のみ置き換えます。
// 条件付きUPDATEで行うため、同じトークンでの同時リフレッシュは一つだけが成功します。
func (r *userGorm) SwapRefreshToken(ctx context.Context, id, old, token string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ? AND refresh_token = ?", id, old).
		Update("refresh_token", token)
	if res.Error != nil {
		return false, domain.Transient("swap refresh token", res.Error)
	}
	return res.RowsAffected == 1, nil
}
