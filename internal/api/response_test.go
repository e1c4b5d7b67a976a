package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_backend/internal/shared/apperr"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation is surfaced verbatim", apperr.Validation("email: is invalid."), http.StatusBadRequest, "email: is invalid."},
		{"not found", apperr.NotFound("task not found"), http.StatusNotFound, "task not found"},
		{"authentication", apperr.Authentication("unable to login"), http.StatusUnauthorized, "unable to login"},
		{"storage is hidden", apperr.Storage("save task", errors.New("pq: connection refused")), http.StatusInternalServerError, "internal server error"},
		{"unclassified is hidden", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(ContextRequestID, "req-1")

			RespondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, c.IsAborted())

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Error)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}
