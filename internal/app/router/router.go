// Package router wires HTTP routes to handlers.
package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	authhandler "auth_backend/internal/feature/auth/transport/handler"
	platformhandler "auth_backend/internal/platform/http/handler"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/logging"
	"auth_backend/internal/platform/metrics"
)

// Deps are the collaborators the router needs. Metrics and Ready are optional.
type Deps struct {
	Auth    *authhandler.AuthHandler
	Gateway jwtmw.Authenticator
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	Gather  gin.HandlerFunc
	Ready   gin.HandlerFunc
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Logger != nil {
		r.Use(logging.RequestLogger(d.Logger))
	}
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	if d.Ready != nil {
		r.GET("/readyz", d.Ready)
	}
	if d.Gather != nil {
		r.GET("/metrics", d.Gather)
	}

	// 新規ユーザー登録（登録後そのままログイン）
	r.POST("/register", d.Auth.Register)
	// ログイン（トークンペア発行）
	r.POST("/login", d.Auth.Login)
	// 電話番号ログイン
	r.POST("/send-otp", d.Auth.SendOTP)
	r.POST("/verify-otp", d.Auth.VerifyOTP)
	// リフレッシュトークンのローテーション
	r.POST("/refresh", d.Auth.Refresh)

	// 認証必須のルート
	// 期限切れのアクセストークンでもX-Refresh-Tokenがあれば更新して続行する
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(d.Gateway))
	{
		auth.GET("/profile", d.Auth.Profile)
	}

	return r
}
