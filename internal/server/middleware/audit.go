package middleware

import (
	"github.com/gin-gonic/gin"

	"my-friends/backend/internal/audit"
)

// Audit records one entry per authenticated request after the handler
// runs. Anonymous requests (login, registration starts) are not audited;
// writes are best-effort and never fail the request.
func Audit(logger *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		user, ok := GetUser(c)
		if !ok {
			return
		}
		action := c.Request.Method + " " + c.FullPath()
		logger.LogEvent(c.Request.Context(), user.ID, action, c.Request.URL.Path, c.ClientIP(), "")
	}
}
