// Package middleware contains the cross-cutting Gin middleware of the HTTP server.
package middleware

import (
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"task_backend/internal/api"
)

// HeaderRequestID carries the request id back to the client.
const HeaderRequestID = "X-Request-ID"

const requestIDLength = 12

// RequestID stamps every request with a fresh nanoid, stores it under
// api.ContextRequestID and echoes it in the X-Request-ID response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := gonanoid.New(requestIDLength)
		if err != nil {
			// crypto/rand failure; keep serving without an id
			c.Next()
			return
		}
		c.Set(api.ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
