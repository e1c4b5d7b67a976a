package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"task_backend/internal/api"
)

// BodySizeLimiter caps the request body at maxBytes.
// Declared oversize bodies are rejected with status and msg before the handler
// runs; bodies that lie about their length fail while being read and the
// handler reports that through IsBodyTooLarge.
func BodySizeLimiter(maxBytes int64, status int, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			api.Abort(c, status, msg)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from a body cut off by BodySizeLimiter.
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
