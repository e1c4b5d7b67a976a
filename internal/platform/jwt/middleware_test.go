package jwtmw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_backend/internal/api"
	"task_backend/internal/feature/users/domain/entity"
	"task_backend/internal/shared/apperr"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockSessionLookup is a SessionLookup backed by a func field.
type mockSessionLookup struct {
	AuthenticateFunc func(ctx context.Context, userID, token string) (*entity.User, error)
	calls            int
}

func (m *mockSessionLookup) Authenticate(ctx context.Context, userID, token string) (*entity.User, error) {
	m.calls++
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, userID, token)
	}
	return nil, apperr.Authentication("please authenticate")
}

// storeWith returns a lookup that only knows the given user and its tokens.
func storeWith(u *entity.User) *mockSessionLookup {
	return &mockSessionLookup{
		AuthenticateFunc: func(ctx context.Context, userID, token string) (*entity.User, error) {
			if userID == u.ID && slices.Contains(u.Tokens, token) {
				return u, nil
			}
			return nil, apperr.Authentication("please authenticate")
		},
	}
}

func runGate(t *testing.T, gate gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	gate(c)
	return w, c
}

func TestAuthRequired_MissingBearerToken(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase", "bearer token123"},
		{"no space after Bearer", "Bearertoken123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &mockSessionLookup{}
			w, c := runGate(t, AuthRequired(NewCodec("secret"), lookup), tt.authHeader)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.True(t, c.IsAborted())
			assert.Zero(t, lookup.calls, "store must not be consulted without a bearer token")
		})
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	lookup := &mockSessionLookup{}
	forged, err := NewCodec("other-secret").Issue("u1")
	require.NoError(t, err)

	for _, token := range []string{"not.a.valid.token", "randomstring", forged} {
		w, c := runGate(t, AuthRequired(NewCodec("secret"), lookup), "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, c.IsAborted())
	}
	assert.Zero(t, lookup.calls)
}

func TestAuthRequired_ValidSession(t *testing.T) {
	codec := NewCodec("secret")
	token, err := codec.Issue("u1")
	require.NoError(t, err)

	user := &entity.User{ID: "u1", Name: "Ada", Tokens: []string{"older", token}}

	w, c := runGate(t, AuthRequired(codec, storeWith(user)), "Bearer "+token)

	assert.False(t, c.IsAborted(), "response: %s", w.Body.String())

	got, ok := CurrentUser(c)
	require.True(t, ok)
	assert.Same(t, user, got)
	assert.Equal(t, token, CurrentToken(c))
	assert.Equal(t, "u1", c.GetString(ContextUserID))
}

func TestAuthRequired_RevokedToken(t *testing.T) {
	codec := NewCodec("secret")
	token, err := codec.Issue("u1")
	require.NoError(t, err)

	// Signature is valid, but the token is no longer on the user record.
	user := &entity.User{ID: "u1", Tokens: []string{"some-other-token"}}

	w, c := runGate(t, AuthRequired(codec, storeWith(user)), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())

	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "please authenticate", body.Error)
}

func TestAuthRequired_StorageFailure(t *testing.T) {
	codec := NewCodec("secret")
	token, err := codec.Issue("u1")
	require.NoError(t, err)

	lookup := &mockSessionLookup{
		AuthenticateFunc: func(ctx context.Context, userID, token string) (*entity.User, error) {
			return nil, apperr.Storage("find user", errors.New("connection refused"))
		},
	}

	w, c := runGate(t, AuthRequired(codec, lookup), "Bearer "+token)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, c.IsAborted())
}

func TestCurrentUser_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := CurrentUser(c)
	assert.False(t, ok)
	assert.Empty(t, CurrentToken(c))
}
