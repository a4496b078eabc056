// Package middleware carries request identity and cross-cutting concerns
// for the HTTP server.
package middleware

import (
	"github.com/gin-gonic/gin"

	userdomain "my-friends/backend/internal/user/domain"
)

const (
	userKey  = "auth.user"
	tokenKey = "auth.token"
)

// SetUser binds the authenticated user and its session token to the request.
func SetUser(c *gin.Context, u *userdomain.User, token string) {
	c.Set(userKey, u)
	c.Set(tokenKey, token)
}

// GetUser returns the authenticated user, or ok false on anonymous requests.
func GetUser(c *gin.Context) (*userdomain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*userdomain.User)
	return u, ok
}

// GetToken returns the session token the request authenticated with.
func GetToken(c *gin.Context) (string, bool) {
	v, ok := c.Get(tokenKey)
	if !ok {
		return "", false
	}
	t, ok := v.(string)
	return t, ok
}
