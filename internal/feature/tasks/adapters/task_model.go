package adapters

import (
	"time"

	"task_backend/internal/feature/tasks/domain/entity"
)

// TaskModel is the GORM model for the tasks table.
type TaskModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	Description string `gorm:"type:text;not null"`
	Completed   bool   `gorm:"not null;default:false"`
	OwnerID     string `gorm:"size:36;not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM.
func (TaskModel) TableName() string {
	return "tasks"
}

// Models lists the GORM models of the tasks feature for migration.
func Models() []any {
	return []any{&TaskModel{}}
}

// ToEntity converts the GORM model to a domain entity.
func (m *TaskModel) ToEntity() *entity.Task {
	return &entity.Task{
		ID:          m.ID,
		Description: m.Description,
		Completed:   m.Completed,
		Owner:       m.OwnerID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// TaskModelFromEntity converts a domain entity to a GORM model.
func TaskModelFromEntity(t *entity.Task) *TaskModel {
	return &TaskModel{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		OwnerID:     t.Owner,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
