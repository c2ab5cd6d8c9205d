package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lodgehr/backend/internal/interfaces/http/dto"
)

// DefaultBodyLimit caps step payloads and signature artifacts.
// Signature images are small PNGs; anything near this limit is abuse.
const DefaultBodyLimit = 1 << 20

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
			))
			return
		}

		// Limit streaming bodies that did not declare a length
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
