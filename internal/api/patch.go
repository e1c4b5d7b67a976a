package api

import (
	"encoding/json"
	"io"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"task_backend/internal/shared/apperr"
)

const (
	MsgInvalidBody    = "invalid request body"
	MsgInvalidUpdates = "invalid updates"
)

// BindPatch decodes a JSON object body into dst after checking that every key
// is in allowed. One unknown key rejects the whole body.
func BindPatch(c *gin.Context, allowed []string, dst any) error {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return apperr.Validation(MsgInvalidBody)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return apperr.Validation(MsgInvalidBody)
	}

	for key := range fields {
		if !slices.Contains(allowed, key) {
			return apperr.Validation(MsgInvalidUpdates)
		}
	}

	if err := binding.JSON.BindBody(raw, dst); err != nil {
		return apperr.Validation(MsgInvalidBody)
	}
	return nil
}

