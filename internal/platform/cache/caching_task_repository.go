// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"task_backend/internal/feature/tasks/domain/entity"
	"task_backend/internal/feature/tasks/usecase"
)

// CachingTaskRepository decorates a TaskRepository with Redis caching of list results.
//
// Cached lists are keyed by a per-owner generation number. Every write bumps
// the owner's generation, so lists cached under an older generation are never
// read again and simply expire. A list computed concurrently with a write is
// stored under the generation it started with and cannot shadow newer data.
type CachingTaskRepository struct {
	inner     usecase.TaskRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// Compile-time check to ensure CachingTaskRepository implements TaskRepository.
var _ usecase.TaskRepository = (*CachingTaskRepository)(nil)

// NewCachingTaskRepository decorates a TaskRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "tasks".
// A nil rdb disables caching entirely.
func NewCachingTaskRepository(rdb *redis.Client, ttl time.Duration, inner usecase.TaskRepository, namespace string) *CachingTaskRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "tasks"
	}
	return &CachingTaskRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (c *CachingTaskRepository) Create(ctx context.Context, t *entity.Task) error {
	if err := c.inner.Create(ctx, t); err != nil {
		return err
	}
	c.invalidate(ctx, t.Owner)
	return nil
}

// FindByID is not cached.
func (c *CachingTaskRepository) FindByID(ctx context.Context, owner, id string) (*entity.Task, error) {
	return c.inner.FindByID(ctx, owner, id)
}

// List checks the cache first then falls back to the inner repository.
// When the owner's generation cannot be read the cache is bypassed.
func (c *CachingTaskRepository) List(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
	if c.rdb == nil {
		return c.inner.List(ctx, owner, q)
	}

	gen, err := c.generation(ctx, owner)
	if err != nil {
		zap.L().Warn("task cache generation unavailable", zap.String("owner", owner), zap.Error(err))
		return c.inner.List(ctx, owner, q)
	}
	key := c.cacheKey(owner, gen, q)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Task
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.List(ctx, owner, q)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

func (c *CachingTaskRepository) Update(ctx context.Context, t *entity.Task) error {
	if err := c.inner.Update(ctx, t); err != nil {
		return err
	}
	c.invalidate(ctx, t.Owner)
	return nil
}

func (c *CachingTaskRepository) Delete(ctx context.Context, owner, id string) (*entity.Task, error) {
	t, err := c.inner.Delete(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, owner)
	return t, nil
}

func (c *CachingTaskRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	n, err := c.inner.DeleteByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, owner)
	return n, nil
}

// invalidate moves owner to a new generation. Failures are logged, not returned.
func (c *CachingTaskRepository) invalidate(ctx context.Context, owner string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, c.generationKey(owner)).Err(); err != nil {
		zap.L().Warn("task cache invalidation failed", zap.String("owner", owner), zap.Error(err))
	}
}

// generation returns the current generation of owner. A missing counter is generation 0.
func (c *CachingTaskRepository) generation(ctx context.Context, owner string) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.generationKey(owner)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// generationKey is the counter bumped by every write of owner. It has no TTL.
func (c *CachingTaskRepository) generationKey(owner string) string {
	return fmt.Sprintf("%s:gen:%s", c.namespace, safe(owner))
}

// cacheKey generates a cache key for a specific list query in generation gen.
func (c *CachingTaskRepository) cacheKey(owner string, gen int64, q entity.ListQuery) string {
	completed := "any"
	if q.Completed != nil {
		completed = fmt.Sprint(*q.Completed)
	}
	sort := string(q.Sort)
	if sort == "" {
		sort = "default"
	}
	dir := "asc"
	if q.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s:%s:g%d:%s:%s:%s:%d:%d", c.namespace, safe(owner), gen, completed, sort, dir, q.Limit, q.Skip)
}

// safe escapes characters that are problematic in Redis keys.
func safe(s string) string {
	return keyEscaper.Replace(s)
}

var keyEscaper = strings.NewReplacer(
	" ", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"[", "_",
	"]", "_",
)
