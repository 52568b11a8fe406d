package jwtmw

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

const (
	// ContextUserID is the gin context key holding the authenticated subject id.
	ContextUserID = "userID"

	// HeaderRefreshToken carries the optional refresh token on requests and
	// the rotated refresh token on responses.
	HeaderRefreshToken = "X-Refresh-Token"

	// HeaderAccessToken carries the rotated access token on responses.
	HeaderAccessToken = "X-Access-Token"
)

// Authenticator resolves request credentials to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, creds usecase.Credentials) (*entity.Principal, error)
}

// AuthRequired returns a Gin middleware function that validates the bearer
// token and restricts access to authenticated users only. When the access
// token has expired and a valid X-Refresh-Token is sent, the request
// proceeds and the rotated pair is returned in response headers.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		var bearer string
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			bearer = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}

		// 2. Authenticate, refreshing if needed
		principal, err := auth.Authenticate(c.Request.Context(), usecase.Credentials{
			Bearer:  bearer,
			Refresh: c.GetHeader(HeaderRefreshToken),
		})
		if err != nil {
			if domain.KindOf(err) == domain.KindTransient {
				slog.Error("authentication failed", "error", err, "remote_addr", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// 3. Hand the rotated pair back to the caller
		if p := principal.Rotated; p != nil {
			c.Header(HeaderAccessToken, p.AccessToken)
			c.Header(HeaderRefreshToken, p.RefreshToken)
			slog.Info("access token refreshed", "subject_id", principal.SubjectID, "remote_addr", c.ClientIP())
		}

		// 4. Thread the principal through the request context
		c.Set(ContextUserID, principal.SubjectID)
		c.Request = c.Request.WithContext(entity.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}
