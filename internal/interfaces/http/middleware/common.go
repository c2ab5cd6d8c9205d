package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lodgehr/backend/internal/interfaces/http/dto"
)

// Context keys set by the middleware chain
const (
	// RequestIDKey holds the correlation id for the request
	RequestIDKey = "request_id"
	// InvitationTokenKey holds the bearer token identifying a session
	InvitationTokenKey = "invitation_token"
)

// RequestID attaches a correlation id to each request, reusing the
// caller's X-Request-ID header when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// InvitationToken extracts the bearer token from the Authorization
// header. The token is the only credential an onboarding employee has,
// so every session-scoped route requires it.
func InvitationToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized,
				"Missing invitation token",
			))
			return
		}
		c.Set(InvitationTokenKey, token)
		c.Next()
	}
}

// GetInvitationToken returns the token extracted by InvitationToken,
// or empty when the middleware did not run
func GetInvitationToken(c *gin.Context) string {
	return c.GetString(InvitationTokenKey)
}

// GetRequestID returns the correlation id for the request
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// generateRequestID generates a 128-bit random correlation id
func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().UTC().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(bytes)
}
