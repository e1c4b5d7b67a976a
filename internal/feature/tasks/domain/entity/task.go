// Package entity defines the domain entities for the tasks feature.
package entity

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Task is a to-do item owned by exactly one user.
// Validation errors are keyed by the json tag names.
type Task struct {
	ID          string `json:"_id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	// Owner is the ID of the user the task belongs to.
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize trims the description.
func (t *Task) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
}

// Validate checks the fields a client can set.
func (t Task) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Description, validation.Required.Error("is required")),
	)
}

// View returns the public representation of the task.
func (t *Task) View() TaskView {
	return TaskView{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.Owner,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type TaskView struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Views converts a slice of tasks. The result is never nil.
func Views(tasks []Task) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].View())
	}
	return out
}
