package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/auth"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

const sessionContextKey = "wallet_session"

// RequireSession authenticates the bearer token and resolves the in-memory
// wallet session it refers to. A valid token whose session has been logged
// out is still unauthorized.
func RequireSession(jwtManager *auth.JWTManager, sessions *wallet.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := jwtManager.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		session, ok := sessions.Get(claims.SessionID)
		if !ok || session.Address != claims.Address {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

func SessionFromContext(c *gin.Context) (*wallet.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*wallet.Session)
	return session, ok
}
