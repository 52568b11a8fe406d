package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
)

const (
	// DefaultAccessTTL is the access token lifetime.
	DefaultAccessTTL = time.Hour
	// DefaultRefreshTTL is the refresh token lifetime.
	DefaultRefreshTTL = 365 * 24 * time.Hour
)

// tokenUsecase mints, verifies and rotates token pairs. The only persistent
// state it touches is the refresh token stored on the user record.
type tokenUsecase struct {
	signer     TokenSigner
	users      UserRepository
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenUsecase creates a tokenUsecase. Non-positive TTLs use the defaults.
func NewTokenUsecase(signer TokenSigner, users UserRepository, accessTTL, refreshTTL time.Duration) *tokenUsecase {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &tokenUsecase{
		signer:     signer,
		users:      users,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken signs a short-lived access token for subjectID.
func (u *tokenUsecase) IssueAccessToken(subjectID string) (string, time.Time, error) {
	return u.signer.Sign(subjectID, entity.TokenKindAccess, u.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for subjectID.
func (u *tokenUsecase) IssueRefreshToken(subjectID string) (string, time.Time, error) {
	return u.signer.Sign(subjectID, entity.TokenKindRefresh, u.refreshTTL)
}

func (u *tokenUsecase) mint(subjectID string) (*entity.TokenPair, error) {
	access, accessExp, err := u.IssueAccessToken(subjectID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := u.IssueRefreshToken(subjectID)
	if err != nil {
		return nil, err
	}
	return &entity.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssuePair mints a pair and stores the refresh token on the subject,
// overwriting the previous one. Only the latest login can refresh.
func (u *tokenUsecase) IssuePair(ctx context.Context, subjectID string) (*entity.TokenPair, error) {
	if subjectID == "" {
		return nil, domain.Validation("subject id is required")
	}
	pair, err := u.mint(subjectID)
	if err != nil {
		return nil, err
	}
	if err := u.users.SetRefreshToken(ctx, subjectID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// VerifyAccess returns the subject of a valid access token,
// domain.ErrTokenExpired for an expired one and domain.ErrTokenInvalid otherwise.
func (u *tokenUsecase) VerifyAccess(token string) (string, error) {
	if token == "" {
		return "", domain.ErrTokenInvalid
	}
	return u.signer.Parse(token, entity.TokenKindAccess)
}

// Refresh rotates the pair for the subject of refreshToken. The presented
// token must equal the stored one, and the new value is written with a
// compare-and-swap so that of two concurrent refreshes with the same token
// only one succeeds.
func (u *tokenUsecase) Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.ErrTokenInvalid
	}
	subjectID, err := u.signer.Parse(refreshToken, entity.TokenKindRefresh)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	user, err := u.users.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		slog.Warn("refresh token does not match stored value", "subject_id", subjectID)
		return nil, domain.ErrTokenInvalid
	}

	pair, err := u.mint(subjectID)
	if err != nil {
		return nil, err
	}
	swapped, err := u.users.SwapRefreshToken(ctx, subjectID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !swapped {
		slog.Warn("refresh token rotated concurrently", "subject_id", subjectID)
		return nil, domain.ErrTokenInvalid
	}
	return pair, nil
}
