package usecase

import (
	"context"
	"errors"
	"log/slog"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
)

// Credentials are the tokens presented with a protected request.
type Credentials struct {
	// Bearer is the access token from the Authorization header.
	Bearer string
	// Refresh is the optional side-channel refresh token.
	Refresh string
}

// TokenVerifier is the part of the token usecase the gateway needs.
type TokenVerifier interface {
	VerifyAccess(token string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
}

// gateway turns request credentials into a Principal, driving the refresh
// protocol when the access token has expired.
type gateway struct {
	tokens   TokenVerifier
	recorder OutcomeRecorder
}

// NewGateway creates the request-time authenticator.
func NewGateway(tokens TokenVerifier, recorder OutcomeRecorder) *gateway {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &gateway{tokens: tokens, recorder: recorder}
}

// Authenticate returns the principal for creds. Every rejection is
// domain.ErrUnauthenticated; a missing bearer token never triggers a refresh.
// Store failures during refresh are returned as they are.
func (g *gateway) Authenticate(ctx context.Context, creds Credentials) (*entity.Principal, error) {
	if creds.Bearer == "" {
		return nil, domain.ErrUnauthenticated
	}

	subjectID, err := g.tokens.VerifyAccess(creds.Bearer)
	if err == nil {
		return &entity.Principal{SubjectID: subjectID}, nil
	}
	if !errors.Is(err, domain.ErrTokenExpired) || creds.Refresh == "" {
		return nil, domain.ErrUnauthenticated
	}

	pair, err := g.tokens.Refresh(ctx, creds.Refresh)
	g.recorder.Record("gateway_refresh", err)
	if err != nil {
		if domain.KindOf(err) == domain.KindTransient {
			return nil, err
		}
		slog.Info("silent refresh rejected", "error", err)
		return nil, domain.ErrUnauthenticated
	}

	subjectID, err = g.tokens.VerifyAccess(pair.AccessToken)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return &entity.Principal{SubjectID: subjectID, Rotated: pair}, nil
}
