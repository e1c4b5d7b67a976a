// Package jwtmw issues session tokens and guards routes that require one.
package jwtmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"task_backend/internal/api"
	"task_backend/internal/feature/users/domain/entity"
	"task_backend/internal/shared/apperr"
)

const (
	// ContextUser holds the authenticated *entity.User.
	ContextUser = "user"
	// ContextToken holds the raw bearer token of the request.
	ContextToken = "token"
	// ContextUserID holds the authenticated user id as a string, for request logging.
	ContextUserID = "userID"

	bearerPrefix = "Bearer "
	authError    = "please authenticate"
)

// TokenVerifier decodes a session token into a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// SessionLookup loads the user owning an active session.
// It must return an apperr authentication error when no user with that id holds the token.
type SessionLookup interface {
	Authenticate(ctx context.Context, userID, token string) (*entity.User, error)
}

// AuthRequired returns a Gin middleware that only lets requests through when
// they carry a valid bearer token that is still present on the user record.
func AuthRequired(verifier TokenVerifier, sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) {
			api.Abort(c, http.StatusUnauthorized, authError)
			return
		}
		tokenStr := strings.TrimPrefix(auth, bearerPrefix)

		userID, err := verifier.Verify(tokenStr)
		if err != nil {
			api.Abort(c, http.StatusUnauthorized, authError)
			return
		}

		user, err := sessions.Authenticate(c.Request.Context(), userID, tokenStr)
		if err != nil {
			if apperr.Status(err) >= http.StatusInternalServerError {
				api.RespondError(c, err)
				return
			}
			api.Abort(c, http.StatusUnauthorized, authError)
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextToken, tokenStr)
		c.Set(ContextUserID, user.ID)
		c.Next()
	}
}

// CurrentUser returns the user attached by AuthRequired.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}

// CurrentToken returns the bearer token attached by AuthRequired.
func CurrentToken(c *gin.Context) string {
	return c.GetString(ContextToken)
}
