package handler

import "github.com/gin-gonic/gin"

// requestSessionID extracts the caller's session identifier. Sessions are
// sticky via the X-Session-Id header; the query parameter covers clients
// that cannot set headers. Empty means "start a new session" on endpoints
// that create one.
func requestSessionID(c *gin.Context) string {
	if id := c.GetHeader("X-Session-Id"); id != "" {
		return id
	}
	return c.Query("sessionId")
}
