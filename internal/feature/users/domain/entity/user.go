// Package entity defines the domain entities for the users feature.
package entity

import "time"

// User represents a registered account.
type User struct {
	// ID is a UUID string assigned on registration.
	ID string

	Name string

	// Email is unique across all users and always stored lower-case.
	Email string

	Age int

	// Password is the bcrypt hash. Plaintext never reaches storage.
	Password string

	// Tokens holds every session token that is still valid for this user.
	Tokens []string

	// Avatar is a 250x250 PNG, or nil when the user has none.
	Avatar []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasAvatar reports whether the user uploaded an avatar.
func (u *User) HasAvatar() bool {
	return len(u.Avatar) > 0
}

// View returns the public representation of the user.
func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserView is what clients see of a user. It never carries the password hash,
// session tokens or avatar bytes.
type UserView struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
