// Package dto defines data transfer objects for the users feature's HTTP transport layer.
package dto

import "task_backend/internal/feature/users/domain/entity"

// RegisterReq is the body of POST /users. Field rules are checked by the
// domain so their messages reach the client unchanged.
type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
}

// Profile converts the request to the domain profile.
func (r RegisterReq) Profile() entity.Profile {
	return entity.Profile{Name: r.Name, Email: r.Email, Password: r.Password, Age: r.Age}
}

// LoginReq is the body of POST /users/login.
type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserReq is the body of PATCH /users/me. Absent fields stay nil.
type UpdateUserReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"`
}

// UpdatableUserFields lists the keys UpdateUserReq accepts.
var UpdatableUserFields = []string{"name", "email", "password", "age"}

// AuthRes is returned by register and login.
type AuthRes struct {
	User  entity.UserView `json:"user"`
	Token string          `json:"token"`
}
