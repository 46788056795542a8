package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-board-api/internal/constants"
	apierrors "github.com/yukikurage/team-board-api/internal/errors"
	"github.com/yukikurage/team-board-api/internal/services"
)

const (
	msgNoToken      = "No token provided, authorization denied."
	msgInvalidToken = "Token is not valid, authorization denied."
)

// TokenDenylist reports whether a token ID was revoked by logout.
type TokenDenylist interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RequireAuth checks the bearer token on the request. A missing token is
// rejected with 401; a malformed, expired or revoked one with 403. denylist
// may be nil.
func RequireAuth(jwtService services.JWTService, denylist TokenDenylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			apierrors.Unauthorized(c, msgNoToken)
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			apierrors.Forbidden(c, msgInvalidToken)
			return
		}

		if denylist != nil && claims.ID != "" {
			revoked, err := denylist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Printf("[auth] failed to check token revocation: %v", err)
				apierrors.InternalError(c, "")
				return
			}
			if revoked {
				apierrors.Forbidden(c, msgInvalidToken)
				return
			}
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyUsername, claims.Username)
		c.Set(constants.ContextKeyClaims, claims)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetUsername retrieves the current username from context
func GetUsername(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUsername)
}

// GetClaims retrieves the validated token claims from context
func GetClaims(c *gin.Context) (*services.Claims, bool) {
	value, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*services.Claims)
	return claims, ok
}
