package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"task_backend/internal/feature/tasks/domain/entity"
	"task_backend/internal/shared/apperr"
)

// TaskRepository abstracts persistence of tasks. Every lookup is scoped to an owner.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error

	// FindByID returns ErrTaskNotFound when the task is missing or belongs to someone else.
	FindByID(ctx context.Context, owner, id string) (*entity.Task, error)

	// List returns a page of the owner's tasks. It returns an empty slice, never nil.
	List(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error)

	// Update saves description and completed of a task of task.Owner.
	Update(ctx context.Context, task *entity.Task) error

	// Delete removes one task and returns it.
	Delete(ctx context.Context, owner, id string) (*entity.Task, error)

	// DeleteByOwner removes every task of owner and reports how many were removed.
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}

// TaskPatch carries the fields of a task update. Nil fields are left unchanged.
type TaskPatch struct {
	Description *string
	Completed   *bool
}

type taskUsecase struct {
	tasks TaskRepository
}

// NewTaskUsecase creates the tasks usecase.
func NewTaskUsecase(tasks TaskRepository) *taskUsecase {
	return &taskUsecase{tasks: tasks}
}

// Create stores a new task owned by owner.
func (u *taskUsecase) Create(ctx context.Context, owner, description string, completed bool) (*entity.Task, error) {
	task := &entity.Task{
		ID:          uuid.NewString(),
		Description: description,
		Completed:   completed,
		Owner:       owner,
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		return nil, apperr.WrapValidation(err)
	}

	if err := u.tasks.Create(ctx, task); err != nil {
		return nil, apperr.Storage("create task", err)
	}
	return task, nil
}

// List returns a page of owner's tasks.
func (u *taskUsecase) List(ctx context.Context, owner string, params ListParams) ([]entity.Task, error) {
	q, err := BuildListQuery(params)
	if err != nil {
		return nil, err
	}
	tasks, err := u.tasks.List(ctx, owner, q)
	if err != nil {
		return nil, apperr.Storage("list tasks", err)
	}
	return tasks, nil
}

// Get returns one of owner's tasks.
func (u *taskUsecase) Get(ctx context.Context, owner, id string) (*entity.Task, error) {
	task, err := u.tasks.FindByID(ctx, owner, id)
	if err != nil {
		return nil, u.lookupError("find task", err)
	}
	return task, nil
}

// Update applies a patch to one of owner's tasks.
func (u *taskUsecase) Update(ctx context.Context, owner, id string, patch TaskPatch) (*entity.Task, error) {
	task, err := u.tasks.FindByID(ctx, owner, id)
	if err != nil {
		return nil, u.lookupError("find task", err)
	}

	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		return nil, apperr.WrapValidation(err)
	}

	if err := u.tasks.Update(ctx, task); err != nil {
		return nil, u.lookupError("update task", err)
	}
	return task, nil
}

// Delete removes one of owner's tasks and returns it.
func (u *taskUsecase) Delete(ctx context.Context, owner, id string) (*entity.Task, error) {
	task, err := u.tasks.Delete(ctx, owner, id)
	if err != nil {
		return nil, u.lookupError("delete task", err)
	}
	return task, nil
}

func (u *taskUsecase) lookupError(op string, err error) error {
	if errors.Is(err, ErrTaskNotFound) {
		return apperr.NotFound(msgTaskNotFound)
	}
	return apperr.Storage(op, err)
}
