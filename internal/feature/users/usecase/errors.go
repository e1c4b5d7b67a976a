// Package usecase implements the business logic for the users feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned by repositories when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned by repositories when the email is taken by another user.
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Client-facing messages. The exported ones are shared with the HTTP layer.
const (
	MsgUnableToLogin      = "unable to login"
	MsgPleaseAuthenticate = "please authenticate"
	msgEmailTaken         = "email is already registered"
	msgAvatarNotFound     = "avatar not found"
	msgUserNotFound       = "user not found"
)
