// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
)

// ProfileReader はプロフィール取得用のユーザー読み出しを抽象化します。
// キャッシュ付きの実装を差し込めるよう、UserRepositoryとは分けて定義します。
type ProfileReader interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// authUsecase はHTTPの各ルートが必要とするフローを組み立てます。
// 登録・ログイン・OTP送信・OTP検証・トークン更新・プロフィール取得を提供します。
type authUsecase struct {
	identity *identityUsecase
	otp      *otpUsecase
	tokens   *tokenUsecase
	sender   Sender
	profiles ProfileReader
	recorder OutcomeRecorder
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
// profilesがnilの場合はidentityの検索をそのまま使います。
func NewAuthUsecase(identity *identityUsecase, otp *otpUsecase, tokens *tokenUsecase,
	sender Sender, profiles ProfileReader, recorder OutcomeRecorder) *authUsecase {
	if profiles == nil {
		profiles = identity
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &authUsecase{
		identity: identity,
		otp:      otp,
		tokens:   tokens,
		sender:   sender,
		profiles: profiles,
		recorder: recorder,
	}
}

// Signup は新規ユーザーを登録し、そのままログイン状態のトークンペアを返します。
func (u *authUsecase) Signup(ctx context.Context, in RegisterInput) (user *entity.User, pair *entity.TokenPair, err error) {
	defer func() { u.recorder.Record("signup", err) }()

	user, err = u.identity.Register(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	pair, err = u.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return user, pair, nil
}

// Login はメールアドレスとパスワードで認証し、トークンペアを返します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (user *entity.User, pair *entity.TokenPair, err error) {
	defer func() { u.recorder.Record("login", err) }()

	user, err = u.identity.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	pair, err = u.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return user, pair, nil
}

// SendOTP はチャレンジを発行し、SMSでコードを送信します。
// 送信に失敗してもチャレンジは発行済みのまま残ります。
func (u *authUsecase) SendOTP(ctx context.Context, phone string) (err error) {
	defer func() { u.recorder.Record("send_otp", err) }()

	phone = strings.TrimSpace(phone)
	code, err := u.otp.Issue(ctx, phone)
	if err != nil {
		return err
	}
	if err := u.sender.Send(ctx, phone, "Your Verification Code is "+code); err != nil {
		slog.Error("failed to deliver otp", "error", err)
		return domain.Transient("send otp", err)
	}
	return nil
}

// VerifyOTP はコードを検証し、電話番号に紐づくユーザーのトークンペアを返します。
func (u *authUsecase) VerifyOTP(ctx context.Context, phone, code string) (user *entity.User, pair *entity.TokenPair, err error) {
	defer func() { u.recorder.Record("verify_otp", err) }()

	verified, err := u.otp.Verify(ctx, phone, code)
	if err != nil {
		return nil, nil, err
	}
	user, err = u.identity.EnsurePhoneIdentity(ctx, verified.Phone)
	if err != nil {
		return nil, nil, err
	}
	pair, err = u.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return user, pair, nil
}

// Refresh はリフレッシュトークンをローテーションします。
func (u *authUsecase) Refresh(ctx context.Context, refreshToken string) (pair *entity.TokenPair, err error) {
	defer func() { u.recorder.Record("refresh", err) }()
	return u.tokens.Refresh(ctx, refreshToken)
}

// Profile は認証済みサブジェクトのユーザー情報を返します。
func (u *authUsecase) Profile(ctx context.Context, subjectID string) (*entity.User, error) {
	return u.profiles.FindByID(ctx, subjectID)
}
