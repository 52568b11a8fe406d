// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"auth_backend/internal/app/router"
	"auth_backend/internal/config"
	authadapters "auth_backend/internal/feature/auth/adapters"
	authhandler "auth_backend/internal/feature/auth/transport/handler"
	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/cache"
	"auth_backend/internal/platform/hash"
	platformhandler "auth_backend/internal/platform/http/handler"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/metrics"
	"auth_backend/internal/platform/otpstore"
	"auth_backend/internal/platform/sms"
)

// NewOTPRepository creates an OTPRepository implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to the relational store.
func NewOTPRepository(rdb *goredis.Client, db *gorm.DB) usecase.OTPRepository {
	if rdb != nil {
		return otpstore.NewOTPRedis(rdb, otpstore.DefaultPrefix)
	}
	return authadapters.NewOTPGorm(db)
}

// App holds the assembled HTTP engine.
type App struct {
	Engine *gin.Engine
}

// Build assembles repositories, usecases and handlers. rdb may be nil.
// sender overrides the configured SMS transport when non-nil.
func Build(cfg *config.Config, db *gorm.DB, rdb *goredis.Client, sender usecase.Sender, logger *slog.Logger) (*App, error) {
	if db == nil {
		return nil, errors.New("di: db is required")
	}

	// Repository
	users := authadapters.NewUserGorm(db)
	otps := NewOTPRepository(rdb, db)
	profiles := cache.NewCachingUserReader(rdb, cfg.ProfileCacheTTL(), users, "users")

	// Platform
	signer, err := jwtmw.NewSigner(cfg.JWTSecret, jwtmw.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return nil, err
	}
	if sender == nil {
		if sender, err = sms.NewSender(cfg.SMS(), !cfg.IsProduction()); err != nil {
			return nil, err
		}
	}
	reg := metrics.NewRegistry()
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, err
	}

	// Usecase
	identity := usecase.NewIdentityUsecase(users, hash.NewBcryptHasher(cfg.BcryptCost))
	otp := usecase.NewOTPUsecase(otps, cfg.OTPTTL())
	tokens := usecase.NewTokenUsecase(signer, users, cfg.AccessTTL(), cfg.RefreshTTL())
	authUC := usecase.NewAuthUsecase(identity, otp, tokens, sender, profiles, recorder)
	gateway := usecase.NewGateway(tokens, recorder)

	// Handler
	deps := map[string]platformhandler.Pinger{
		"db":    platformhandler.PingFunc(func(ctx context.Context) error { return pingDB(ctx, db) }),
		"redis": nil,
	}
	if rdb != nil {
		deps["redis"] = platformhandler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	engine := router.NewRouter(router.Deps{
		Auth:    authhandler.NewAuthHandler(authUC),
		Gateway: gateway,
		Logger:  logger,
		Metrics: recorder,
		Gather:  metrics.Handler(prometheus.Gatherers{reg}),
		Ready:   platformhandler.Ready(0, deps),
	})
	return &App{Engine: engine}, nil
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
