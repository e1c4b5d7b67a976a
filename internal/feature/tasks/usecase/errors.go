// Package usecase implements the business logic for the tasks feature.
package usecase

import "errors"

// ErrTaskNotFound is returned by repositories when no task with the id belongs to the owner.
var ErrTaskNotFound = errors.New("task not found")

const msgTaskNotFound = "task not found"
