// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/transport/http/dto"
	"auth_backend/internal/feature/auth/usecase"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は新規ユーザーを登録し、ログイン済みのトークンペアを返します。
	Signup(ctx context.Context, in usecase.RegisterInput) (*entity.User, *entity.TokenPair, error)
	// Login はユーザーを認証し、成功時にトークンペアを返します。
	Login(ctx context.Context, email, password string) (*entity.User, *entity.TokenPair, error)
	// SendOTP は電話番号宛にワンタイムコードを送信します。
	SendOTP(ctx context.Context, phone string) error
	// VerifyOTP はコードを検証し、電話番号のユーザーのトークンペアを返します。
	VerifyOTP(ctx context.Context, phone, code string) (*entity.User, *entity.TokenPair, error)
	// Refresh はリフレッシュトークンをローテーションします。
	Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
	// Profile は認証済みユーザーの情報を返します。
	Profile(ctx context.Context, subjectID string) (*entity.User, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
// AuthUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type AuthHandler struct {
	auth AuthUsecase
	now  func() time.Time
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタで、外部からAuthUsecaseを注入します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth, now: time.Now}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - メール重複時は409を返却
// - 成功時はトークン付きで201を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}
	user, pair, err := h.auth.Signup(c.Request.Context(), usecase.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     string(req.Email),
		Password:  req.Password,
	})
	if err != nil {
		slog.Warn("register failed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("user registered", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.NewAuthRes("", user, pair, h.now()))
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - 未登録のメールアドレスは404、パスワード不一致は401を返却
// - 認証成功時はトークンペア付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}
	user, pair, err := h.auth.Login(c.Request.Context(), string(req.Email), req.Password)
	if err != nil {
		slog.Warn("login failed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.NewAuthRes("", user, pair, h.now()))
}

// SendOTP はOTP送信APIエンドポイントを処理します。
// 配信失敗は500を返却します。
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req dto.SendOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "phone number is required"})
		return
	}
	if err := h.auth.SendOTP(c.Request.Context(), req.PhoneNo); err != nil {
		slog.Warn("send otp failed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "OTP sent successfully"})
}

// VerifyOTP はOTP検証APIエンドポイントを処理します。
// 入力不正・コード不一致・期限切れはすべて同じ400を返却します。
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: domain.ErrInvalidOTP.Error()})
		return
	}
	user, pair, err := h.auth.VerifyOTP(c.Request.Context(), req.PhoneNo, req.OTP)
	if err != nil {
		if domain.KindOf(err) == domain.KindTransient {
			slog.Error("verify otp failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
			return
		}
		slog.Warn("otp rejected", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: domain.ErrInvalidOTP.Error()})
		return
	}
	slog.Info("otp verified", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.NewAuthRes("OTP verified successfully", user, pair, h.now()))
}

// Refresh はトークン更新APIエンドポイントを処理します。
// ストア障害以外の失敗はすべて401を返却します。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if domain.KindOf(err) == domain.KindTransient {
			writeError(c, err)
			return
		}
		slog.Warn("refresh rejected", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: domain.ErrUnauthenticated.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewRefreshRes(pair, h.now()))
}

// Profile は認証済みユーザーのプロフィールを返します。
// jwtmw.AuthRequiredの後段で使用します。
func (h *AuthHandler) Profile(c *gin.Context) {
	p, ok := entity.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: domain.ErrUnauthenticated.Error()})
		return
	}
	user, err := h.auth.Profile(c.Request.Context(), p.SubjectID)
	if err != nil {
		// トークンは有効でもユーザーが削除されている場合
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: domain.ErrUnauthenticated.Error()})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// writeError はドメインエラーの種別をHTTPステータスに変換して返却します。
// 内部エラーの詳細はレスポンスに含めません。
func writeError(c *gin.Context, err error) {
	var status int
	msg := err.Error()
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindAuth:
		status = http.StatusUnauthorized
	default:
		slog.Error("request failed", "error", err, "path", c.FullPath(), "remote_addr", c.ClientIP())
		status = http.StatusInternalServerError
		msg = "internal server error"
	}
	c.JSON(status, dto.ErrorResponse{Error: msg})
}
