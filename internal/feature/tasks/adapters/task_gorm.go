// Package adapters provides repository implementations for the tasks feature.
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task_backend/internal/feature/tasks/domain/entity"
	"task_backend/internal/feature/tasks/usecase"
)

// taskGorm is the relational implementation of TaskRepository.
type taskGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure taskGorm implements TaskRepository.
var _ usecase.TaskRepository = (*taskGorm)(nil)

// NewTaskGorm creates a new instance of taskGorm.
func NewTaskGorm(db *gorm.DB) *taskGorm {
	return &taskGorm{db: db}
}

func (r *taskGorm) Create(ctx context.Context, t *entity.Task) error {
	if t == nil {
		return errors.New("task is nil")
	}
	model := TaskModelFromEntity(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = model.CreatedAt, model.UpdatedAt
	return nil
}

func (r *taskGorm) FindByID(ctx context.Context, owner, id string) (*entity.Task, error) {
	var m TaskModel
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrTaskNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// List returns a page of the owner's tasks. Without an explicit sort the
// tasks come back in creation order.
func (r *taskGorm) List(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
	tx := r.db.WithContext(ctx).Where("owner_id = ?", owner)
	if q.Completed != nil {
		tx = tx.Where("completed = ?", *q.Completed)
	}

	sort := q.Sort
	if sort == "" {
		sort = entity.SortCreatedAt
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: sort.Column()}, Desc: q.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}

	var models []TaskModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]entity.Task, 0, len(models))
	for i := range models {
		out = append(out, *models[i].ToEntity())
	}
	return out, nil
}

func (r *taskGorm) Update(ctx context.Context, t *entity.Task) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND owner_id = ?", t.ID, t.Owner).
		Updates(map[string]any{
			"description": t.Description,
			"completed":   t.Completed,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrTaskNotFound
	}
	t.UpdatedAt = now
	return nil
}

func (r *taskGorm) Delete(ctx context.Context, owner, id string) (*entity.Task, error) {
	var deleted *entity.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m TaskModel
		if err := tx.Where("id = ? AND owner_id = ?", id, owner).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return usecase.ErrTaskNotFound
			}
			return err
		}
		if err := tx.Delete(&m).Error; err != nil {
			return err
		}
		deleted = m.ToEntity()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *taskGorm) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res := r.db.WithContext(ctx).Where("owner_id = ?", owner).Delete(&TaskModel{})
	return res.RowsAffected, res.Error
}
