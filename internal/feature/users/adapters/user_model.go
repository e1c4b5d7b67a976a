package adapters

import (
	"time"

	"task_backend/internal/feature/users/domain/entity"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID        string       `gorm:"primaryKey;size:36"`
	Name      string       `gorm:"size:255;not null"`
	Email     string       `gorm:"uniqueIndex;size:255;not null"`
	Age       int          `gorm:"not null;default:0"`
	Password  string       `gorm:"size:255;not null"`
	Avatar    []byte
	Tokens    []TokenModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// TokenModel is one active session token of a user.
type TokenModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"size:36;not null;index"`
	Token     string    `gorm:"size:512;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (TokenModel) TableName() string {
	return "user_tokens"
}

// Models lists the GORM models of the users feature for migration.
func Models() []any {
	return []any{&UserModel{}, &TokenModel{}}
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	tokens := make([]string, 0, len(m.Tokens))
	for _, t := range m.Tokens {
		tokens = append(tokens, t.Token)
	}
	return &entity.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Age:       m.Age,
		Password:  m.Password,
		Tokens:    tokens,
		Avatar:    m.Avatar,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// UserModelFromEntity converts a domain entity to a GORM model, tokens included.
func UserModelFromEntity(u *entity.User) *UserModel {
	m := &UserModel{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		Password:  u.Password,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	for _, t := range u.Tokens {
		m.Tokens = append(m.Tokens, TokenModel{UserID: u.ID, Token: t})
	}
	return m
}
