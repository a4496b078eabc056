package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"my-friends/backend/internal/session"
	userrepo "my-friends/backend/internal/user/repository"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "sessionId"

// RequireUser authenticates the request from the session cookie (or a
// Bearer token for non-browser clients) and loads the account. Requests
// without a live session get 401.
func RequireUser(sessions *session.Registry, users userrepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			unauthenticated(c)
			return
		}
		userID, ok := sessions.Resolve(token)
		if !ok {
			unauthenticated(c)
			return
		}
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage"})
			return
		}
		if user == nil {
			// Session outlived the account; treat as logged out.
			sessions.Destroy(token)
			unauthenticated(c)
			return
		}
		SetUser(c, user, token)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
}
