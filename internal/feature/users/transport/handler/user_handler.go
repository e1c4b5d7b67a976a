// Package handler provides the HTTP handlers of the users feature.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task_backend/internal/api"
	"task_backend/internal/feature/users/domain/entity"
	"task_backend/internal/feature/users/transport/http/dto"
	"task_backend/internal/feature/users/usecase"
	"task_backend/internal/platform/http/middleware"
	"task_backend/internal/platform/imaging"
	jwtmw "task_backend/internal/platform/jwt"
	"task_backend/internal/shared/apperr"
)

const (
	// AvatarField is the multipart field carrying the uploaded image.
	AvatarField = "avatarPic"

	msgAvatarRequired = "avatarPic file is required"
)

// UserUsecase defines the account operations used by the handlers.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type UserUsecase interface {
	Register(ctx context.Context, p entity.Profile) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	Logout(ctx context.Context, user *entity.User, token string) error
	LogoutAll(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User, patch usecase.UserPatch) (*entity.User, error)
	Delete(ctx context.Context, user *entity.User) (*entity.User, error)
	SetAvatar(ctx context.Context, user *entity.User, filename string, data []byte) error
	DeleteAvatar(ctx context.Context, user *entity.User) error
	Avatar(ctx context.Context, userID string) ([]byte, error)
}

// UserHandler handles the /users endpoints.
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// Register handles POST /users and answers 201 with the user and its first token.
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Debug("register body rejected", zap.Error(err), zap.String("remote_addr", c.ClientIP()))
		api.Abort(c, http.StatusBadRequest, api.MsgInvalidBody)
		return
	}

	user, token, err := h.users.Register(c.Request.Context(), req.Profile())
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.AuthRes{User: user.View(), Token: token})
}

// Login handles POST /users/login.
// Missing credentials get the same answer as wrong ones.
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondError(c, apperr.Authentication(usecase.MsgUnableToLogin))
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindAuthentication) {
			zap.L().Info("login failed", zap.String("remote_addr", c.ClientIP()))
		}
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthRes{User: user.View(), Token: token})
}

// Logout handles POST /users/logout and ends the current session only.
func (h *UserHandler) Logout(c *gin.Context) {
	user, token := h.session(c)
	if user == nil {
		return
	}
	if err := h.users.Logout(c.Request.Context(), user, token); err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "logged out"})
}

// LogoutAll handles POST /users/logoutAll.
func (h *UserHandler) LogoutAll(c *gin.Context) {
	user, _ := h.session(c)
	if user == nil {
		return
	}
	if err := h.users.LogoutAll(c.Request.Context(), user); err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "logged out of all sessions"})
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	user, _ := h.session(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, user.View())
}

// Update handles PATCH /users/me. Keys outside name, email, password and age
// reject the request.
func (h *UserHandler) Update(c *gin.Context) {
	user, _ := h.session(c)
	if user == nil {
		return
	}

	var req dto.UpdateUserReq
	if err := api.BindPatch(c, dto.UpdatableUserFields, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	updated, err := h.users.Update(c.Request.Context(), user, usecase.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		Password: req.Password,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.View())
}

// Delete handles DELETE /users/me and returns the removed user.
func (h *UserHandler) Delete(c *gin.Context) {
	user, _ := h.session(c)
	if user == nil {
		return
	}
	deleted, err := h.users.Delete(c.Request.Context(), user)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted.View())
}

// UploadAvatar handles POST /users/me/avatar.
//
// Content-Type: multipart/form-data
// Field: avatarPic (jpg, jpeg or png, at most 1,000,000 bytes)
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user, _ := h.session(c)
	if user == nil {
		return
	}

	file, err := c.FormFile(AvatarField)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			api.RespondError(c, apperr.WrapValidation(imaging.ErrFileTooLarge))
			return
		}
		api.Abort(c, http.StatusBadRequest, msgAvatarRequired)
		return
	}
	if file.Size > imaging.MaxUploadBytes {
		api.RespondError(c, apperr.WrapValidation(imaging.ErrFileTooLarge))
		return
	}

	f, err := file.Open()
	if err != nil {
		api.RespondError(c, apperr.Storage("open avatar upload", err))
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			zap.L().Warn("failed to close avatar upload", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, imaging.MaxUploadBytes+1))
	if err != nil {
		api.RespondError(c, apperr.Storage("read avatar upload", err))
		return
	}

	if err := h.users.SetAvatar(c.Request.Context(), user, file.Filename, data); err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "avatar uploaded"})
}

// DeleteAvatar handles DELETE /users/me/avatar.
func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	user, _ := h.session(c)
	if user == nil {
		return
	}
	if err := h.users.DeleteAvatar(c.Request.Context(), user); err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "avatar deleted"})
}

// Avatar handles the public GET /users/:id/avatar and serves the PNG bytes.
func (h *UserHandler) Avatar(c *gin.Context) {
	img, err := h.users.Avatar(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

// session returns the user and token attached by the auth middleware.
// It aborts with 401 and returns nil when the route was mounted without it.
func (h *UserHandler) session(c *gin.Context) (*entity.User, string) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		api.RespondError(c, apperr.Authentication(usecase.MsgPleaseAuthenticate))
		return nil, ""
	}
	return user, jwtmw.CurrentToken(c)
}
