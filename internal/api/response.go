// Package api holds the response shapes shared by every HTTP handler.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task_backend/internal/shared/apperr"
)

// ContextRequestID is the gin context key holding the request id.
const ContextRequestID = "requestID"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestID,omitempty"`
}

// MessageResponse is returned by operations that only confirm success.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewError builds an ErrorResponse carrying the request id of c.
func NewError(c *gin.Context, msg string) ErrorResponse {
	return ErrorResponse{Error: msg, RequestID: c.GetString(ContextRequestID)}
}

// Abort writes an error body with the given status and stops the handler chain.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, NewError(c, msg))
}

// RespondError maps err to a status code through apperr and writes the error body.
// Storage and unclassified errors are logged and their text is hidden from the client.
func RespondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= 500 {
		zap.L().Error("request failed",
			zap.String("request_id", c.GetString(ContextRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, NewError(c, apperr.PublicMessage(err)))
}
