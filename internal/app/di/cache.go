package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	tasksusecase "task_backend/internal/feature/tasks/usecase"
	"task_backend/internal/platform/cache"
)

// NewTaskRepository returns the task repository used by the usecases.
// If Redis is available, list results are cached there.
// Otherwise, the storage repository is used directly.
func NewTaskRepository(rdb *redis.Client, ttl time.Duration, inner tasksusecase.TaskRepository) tasksusecase.TaskRepository {
	if rdb != nil {
		return cache.NewCachingTaskRepository(rdb, ttl, inner, "tasks")
	}
	return inner
}
