package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/security"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
)

const (
	sessionKey = "session"
	claimsKey  = "access_claims"
)

type SessionResumer interface {
	Resume(sessionID, userID, ipAddress string) (*service.Session, error)
}

// RevocationChecker reports logged-out sessions. It may be nil.
type RevocationChecker interface {
	Revoked(ctx context.Context, sessionID string) (bool, error)
}

func Auth(secret string, sessions SessionResumer, revoked RevocationChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == "" || tokenStr == authHeader {
			// Browsers cannot set headers on websocket upgrades.
			tokenStr = c.Query("access_token")
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		claims, err := security.ParseAccessToken(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		if revoked != nil {
			gone, err := revoked.Revoked(c.Request.Context(), claims.SessionID)
			if err != nil {
				log.Warn().Err(err).Str("session_id", claims.SessionID).Msg("revocation check failed")
			}
			if gone {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_revoked"})
				return
			}
		}

		sess, err := sessions.Resume(claims.SessionID, claims.UserID, c.ClientIP())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_inactive"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(sessionKey, sess)

		c.Next()
	}
}

// CurrentSession returns the session set by Auth, or nil.
func CurrentSession(c *gin.Context) *service.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*service.Session)
	return sess
}

func CurrentClaims(c *gin.Context) *security.AccessClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*security.AccessClaims)
	return claims
}
