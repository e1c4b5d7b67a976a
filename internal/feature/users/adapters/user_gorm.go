// Package adapters provides repository implementations for the users feature.
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"task_backend/internal/feature/users/domain/entity"
	"task_backend/internal/feature/users/usecase"
	"task_backend/internal/platform/db"
)

// userGorm is the relational implementation of UserRepository.
// Tokens live in their own table so a session can be looked up by index.
type userGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure userGorm implements UserRepository.
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm creates a new instance of userGorm.
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create inserts the user and its initial tokens.
// Returns usecase.ErrEmailAlreadyExists when the email is taken.
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	model := UserModelFromEntity(u)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	u.CreatedAt, u.UpdatedAt = model.CreatedAt, model.UpdatedAt
	return nil
}

func (r *userGorm) withTokens(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Tokens", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	})
}

// FindByID returns usecase.ErrUserNotFound when no user has the id.
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var m UserModel
	if err := r.withTokens(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// FindByEmail returns usecase.ErrUserNotFound when no user has the email.
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var m UserModel
	if err := r.withTokens(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// FindByToken returns the user only if the token is one of its active tokens.
func (r *userGorm) FindByToken(ctx context.Context, id, token string) (*entity.User, error) {
	var m UserModel
	err := r.withTokens(ctx).
		Where("id = ?", id).
		Where("EXISTS (SELECT 1 FROM user_tokens WHERE user_tokens.user_id = users.id AND user_tokens.token = ?)", token).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// Update saves the profile fields and the avatar. Tokens are not touched.
func (r *userGorm) Update(ctx context.Context, u *entity.User) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":       u.Name,
		"email":      u.Email,
		"age":        u.Age,
		"password":   u.Password,
		"avatar":     u.Avatar,
		"updated_at": now,
	})
	if res.Error != nil {
		if db.IsDuplicateKey(res.Error) {
			return usecase.ErrEmailAlreadyExists
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	u.UpdatedAt = now
	return nil
}

// Delete removes the user and its tokens.
func (r *userGorm) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&TokenModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&UserModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrUserNotFound
		}
		return nil
	})
}

// AddToken appends a session token. Returns usecase.ErrUserNotFound for an unknown user.
func (r *userGorm) AddToken(ctx context.Context, id, token string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&UserModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return usecase.ErrUserNotFound
		}
		return tx.Create(&TokenModel{UserID: id, Token: token}).Error
	})
}

// RemoveToken deletes one session token. Removing an unknown token is not an error.
func (r *userGorm) RemoveToken(ctx context.Context, id, token string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", id, token).
		Delete(&TokenModel{}).Error
}

// ClearTokens deletes every session token of the user.
func (r *userGorm) ClearTokens(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", id).Delete(&TokenModel{}).Error
}
