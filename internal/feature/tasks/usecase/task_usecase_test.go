package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_backend/internal/feature/tasks/domain/entity"
	"task_backend/internal/shared/apperr"
)

// mockTaskRepository is a TaskRepository backed by func fields.
type mockTaskRepository struct {
	CreateFunc        func(ctx context.Context, task *entity.Task) error
	FindByIDFunc      func(ctx context.Context, owner, id string) (*entity.Task, error)
	ListFunc          func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error)
	UpdateFunc        func(ctx context.Context, task *entity.Task) error
	DeleteFunc        func(ctx context.Context, owner, id string) (*entity.Task, error)
	DeleteByOwnerFunc func(ctx context.Context, owner string) (int64, error)
}

func (m *mockTaskRepository) Create(ctx context.Context, task *entity.Task) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepository) FindByID(ctx context.Context, owner, id string) (*entity.Task, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, owner, id)
	}
	return nil, ErrTaskNotFound
}

func (m *mockTaskRepository) List(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, owner, q)
	}
	return []entity.Task{}, nil
}

func (m *mockTaskRepository) Update(ctx context.Context, task *entity.Task) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepository) Delete(ctx context.Context, owner, id string) (*entity.Task, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, owner, id)
	}
	return nil, ErrTaskNotFound
}

func (m *mockTaskRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	if m.DeleteByOwnerFunc != nil {
		return m.DeleteByOwnerFunc(ctx, owner)
	}
	return 0, nil
}

func TestTaskUsecase_Create(t *testing.T) {
	t.Parallel()

	var stored *entity.Task
	repo := &mockTaskRepository{CreateFunc: func(ctx context.Context, task *entity.Task) error {
		stored = task
		return nil
	}}

	task, err := NewTaskUsecase(repo).Create(context.Background(), "owner-1", "  Buy milk ", true)
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Buy milk", task.Description)
	assert.True(t, task.Completed)
	assert.Equal(t, "owner-1", task.Owner)
	assert.Same(t, stored, task)
}

func TestTaskUsecase_Create_Invalid(t *testing.T) {
	t.Parallel()

	called := false
	repo := &mockTaskRepository{CreateFunc: func(ctx context.Context, task *entity.Task) error {
		called = true
		return nil
	}}

	_, err := NewTaskUsecase(repo).Create(context.Background(), "owner-1", "   ", false)

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "description: is required.", apperr.PublicMessage(err))
	assert.False(t, called)
}

func TestTaskUsecase_Create_StorageFailure(t *testing.T) {
	t.Parallel()

	repo := &mockTaskRepository{CreateFunc: func(ctx context.Context, task *entity.Task) error {
		return errors.New("disk full")
	}}

	_, err := NewTaskUsecase(repo).Create(context.Background(), "owner-1", "Buy milk", false)

	assert.True(t, apperr.Is(err, apperr.KindStorage))
}

func TestTaskUsecase_List(t *testing.T) {
	t.Parallel()

	var gotOwner string
	var gotQuery entity.ListQuery
	repo := &mockTaskRepository{ListFunc: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
		gotOwner, gotQuery = owner, q
		return []entity.Task{{ID: "t1", Owner: owner}}, nil
	}}

	tasks, err := NewTaskUsecase(repo).List(context.Background(), "owner-1", ListParams{Completed: ptr("false"), SortBy: ptr("createdAt:desc")})
	require.NoError(t, err)

	assert.Len(t, tasks, 1)
	assert.Equal(t, "owner-1", gotOwner)
	assert.Equal(t, ptr(false), gotQuery.Completed)
	assert.True(t, gotQuery.Desc)
}

func TestTaskUsecase_List_InvalidQueryNeverHitsStorage(t *testing.T) {
	t.Parallel()

	repo := &mockTaskRepository{ListFunc: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
		t.Fatal("repository must not be called")
		return nil, nil
	}}

	_, err := NewTaskUsecase(repo).List(context.Background(), "owner-1", ListParams{Limit: ptr(-1)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTaskUsecase_Get(t *testing.T) {
	t.Parallel()

	repo := &mockTaskRepository{FindByIDFunc: func(ctx context.Context, owner, id string) (*entity.Task, error) {
		if owner == "owner-1" && id == "t1" {
			return &entity.Task{ID: id, Owner: owner}, nil
		}
		return nil, ErrTaskNotFound
	}}
	uc := NewTaskUsecase(repo)

	task, err := uc.Get(context.Background(), "owner-1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)

	_, err = uc.Get(context.Background(), "owner-2", "t1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "foreign task looks missing")
}

func TestTaskUsecase_Update(t *testing.T) {
	t.Parallel()

	var saved *entity.Task
	repo := &mockTaskRepository{
		FindByIDFunc: func(ctx context.Context, owner, id string) (*entity.Task, error) {
			return &entity.Task{ID: id, Owner: owner, Description: "Old"}, nil
		},
		UpdateFunc: func(ctx context.Context, task *entity.Task) error {
			saved = task
			return nil
		},
	}

	task, err := NewTaskUsecase(repo).Update(context.Background(), "owner-1", "t1", TaskPatch{Completed: ptr(true)})
	require.NoError(t, err)

	assert.True(t, task.Completed)
	assert.Equal(t, "Old", task.Description)
	assert.Same(t, saved, task)
}

func TestTaskUsecase_Update_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing task", func(t *testing.T) {
		t.Parallel()

		_, err := NewTaskUsecase(&mockTaskRepository{}).Update(context.Background(), "owner-1", "nope", TaskPatch{})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("empty description", func(t *testing.T) {
		t.Parallel()

		repo := &mockTaskRepository{FindByIDFunc: func(ctx context.Context, owner, id string) (*entity.Task, error) {
			return &entity.Task{ID: id, Owner: owner, Description: "Old"}, nil
		}}
		_, err := NewTaskUsecase(repo).Update(context.Background(), "owner-1", "t1", TaskPatch{Description: ptr("")})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		repo := &mockTaskRepository{
			FindByIDFunc: func(ctx context.Context, owner, id string) (*entity.Task, error) {
				return &entity.Task{ID: id, Owner: owner, Description: "Old"}, nil
			},
			UpdateFunc: func(ctx context.Context, task *entity.Task) error { return errors.New("boom") },
		}
		_, err := NewTaskUsecase(repo).Update(context.Background(), "owner-1", "t1", TaskPatch{})
		assert.True(t, apperr.Is(err, apperr.KindStorage))
	})
}

func TestTaskUsecase_Delete(t *testing.T) {
	t.Parallel()

	repo := &mockTaskRepository{DeleteFunc: func(ctx context.Context, owner, id string) (*entity.Task, error) {
		if id == "t1" {
			return &entity.Task{ID: id, Owner: owner}, nil
		}
		return nil, ErrTaskNotFound
	}}
	uc := NewTaskUsecase(repo)

	task, err := uc.Delete(context.Background(), "owner-1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)

	_, err = uc.Delete(context.Background(), "owner-1", "t2")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
