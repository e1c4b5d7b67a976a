package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_backend/internal/feature/tasks/domain/entity"
)

type mockTaskRepository struct {
	createFn        func(ctx context.Context, t *entity.Task) error
	findByIDFn      func(ctx context.Context, owner, id string) (*entity.Task, error)
	listFn          func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error)
	updateFn        func(ctx context.Context, t *entity.Task) error
	deleteFn        func(ctx context.Context, owner, id string) (*entity.Task, error)
	deleteByOwnerFn func(ctx context.Context, owner string) (int64, error)
}

func (m *mockTaskRepository) Create(ctx context.Context, t *entity.Task) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	return nil
}

func (m *mockTaskRepository) FindByID(ctx context.Context, owner, id string) (*entity.Task, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, owner, id)
	}
	return nil, nil
}

func (m *mockTaskRepository) List(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
	if m.listFn != nil {
		return m.listFn(ctx, owner, q)
	}
	return []entity.Task{}, nil
}

func (m *mockTaskRepository) Update(ctx context.Context, t *entity.Task) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, t)
	}
	return nil
}

func (m *mockTaskRepository) Delete(ctx context.Context, owner, id string) (*entity.Task, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, owner, id)
	}
	return &entity.Task{ID: id, Owner: owner}, nil
}

func (m *mockTaskRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	if m.deleteByOwnerFn != nil {
		return m.deleteByOwnerFn(ctx, owner)
	}
	return 0, nil
}

var defaultQuery = entity.ListQuery{Limit: 100}

const (
	genKey     = "tasks:gen:u1"
	defaultKey = "tasks:u1:g0:any:default:asc:100:0"
)

func TestNewCachingTaskRepository_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{"zero values use defaults", 0, "", 5 * time.Minute, "tasks"},
		{"negative ttl uses default", -time.Minute, "", 5 * time.Minute, "tasks"},
		{"custom values preserved", 10 * time.Minute, "custom", 10 * time.Minute, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewCachingTaskRepository(nil, tt.ttl, &mockTaskRepository{}, tt.namespace)
			assert.Equal(t, tt.expectedTTL, repo.ttl)
			assert.Equal(t, tt.expectedNamespace, repo.namespace)
		})
	}
}

func TestCachingTaskRepository_Keys(t *testing.T) {
	t.Parallel()

	done, open := true, false
	repo := NewCachingTaskRepository(nil, 0, &mockTaskRepository{}, "")

	tests := []struct {
		name  string
		owner string
		gen   int64
		q     entity.ListQuery
		want  string
	}{
		{"defaults", "u1", 0, defaultQuery, defaultKey},
		{"completed filter", "u1", 3, entity.ListQuery{Completed: &done, Limit: 10, Skip: 20}, "tasks:u1:g3:true:default:asc:10:20"},
		{"open filter sorted desc", "u1", 0, entity.ListQuery{Completed: &open, Limit: 5, Sort: entity.SortUpdatedAt, Desc: true}, "tasks:u1:g0:false:updatedAt:desc:5:0"},
		{"owner escaped", "a:b*", 1, defaultQuery, "tasks:a_b_:g1:any:default:asc:100:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, repo.cacheKey(tt.owner, tt.gen, tt.q))
		})
	}

	assert.Equal(t, genKey, repo.generationKey("u1"))
	assert.Equal(t, "tasks:gen:a_b_", repo.generationKey("a:b*"))
}

func TestCachingTaskRepository_List_NilRedis(t *testing.T) {
	t.Parallel()

	calls := 0
	inner := &mockTaskRepository{
		listFn: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
			calls++
			return []entity.Task{{ID: "t1", Owner: owner}}, nil
		},
	}

	repo := NewCachingTaskRepository(nil, time.Minute, inner, "")
	for i := 0; i < 2; i++ {
		tasks, err := repo.List(context.Background(), "u1", defaultQuery)
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	}
	assert.Equal(t, 2, calls)
}

func TestCachingTaskRepository_List_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cached, _ := json.Marshal([]entity.Task{{ID: "t1", Description: "buy milk", Owner: "u1"}})
	mock.ExpectGet(genKey).RedisNil()
	mock.ExpectGet(defaultKey).SetVal(string(cached))

	inner := &mockTaskRepository{
		listFn: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
			t.Error("inner repository should not be called on cache hit")
			return nil, nil
		},
	}

	repo := NewCachingTaskRepository(rdb, 5*time.Minute, inner, "tasks")
	tasks, err := repo.List(context.Background(), "u1", defaultQuery)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "buy milk", tasks[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingTaskRepository_List_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want := []entity.Task{{ID: "t1", Description: "buy milk", Owner: "u1"}}
	wantJSON, _ := json.Marshal(want)
	key := "tasks:u1:g7:any:default:asc:100:0"

	mock.ExpectGet(genKey).SetVal("7")
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, wantJSON, 5*time.Minute).SetVal("OK")

	inner := &mockTaskRepository{
		listFn: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
			return want, nil
		},
	}

	repo := NewCachingTaskRepository(rdb, 5*time.Minute, inner, "tasks")
	tasks, err := repo.List(context.Background(), "u1", defaultQuery)
	require.NoError(t, err)
	assert.Equal(t, want, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingTaskRepository_List_GenerationUnavailable(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet(genKey).SetErr(errors.New("redis down"))

	calls := 0
	inner := &mockTaskRepository{
		listFn: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
			calls++
			return []entity.Task{{ID: "t1", Owner: owner}}, nil
		},
	}

	repo := NewCachingTaskRepository(rdb, 5*time.Minute, inner, "tasks")
	tasks, err := repo.List(context.Background(), "u1", defaultQuery)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing is cached without a generation")
}

func TestCachingTaskRepository_List_CorruptedCache(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want := []entity.Task{{ID: "t1", Owner: "u1"}}
	wantJSON, _ := json.Marshal(want)

	mock.ExpectGet(genKey).RedisNil()
	mock.ExpectGet(defaultKey).SetVal("not json")
	mock.ExpectDel(defaultKey).SetVal(1)
	mock.ExpectSet(defaultKey, wantJSON, 5*time.Minute).SetVal("OK")

	inner := &mockTaskRepository{
		listFn: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
			return want, nil
		},
	}

	repo := NewCachingTaskRepository(rdb, 5*time.Minute, inner, "tasks")
	tasks, err := repo.List(context.Background(), "u1", defaultQuery)
	require.NoError(t, err)
	assert.Equal(t, want, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingTaskRepository_List_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	dbErr := errors.New("database error")
	mock.ExpectGet(genKey).RedisNil()
	mock.ExpectGet(defaultKey).RedisNil()

	inner := &mockTaskRepository{
		listFn: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
			return nil, dbErr
		},
	}

	repo := NewCachingTaskRepository(rdb, 5*time.Minute, inner, "tasks")
	tasks, err := repo.List(context.Background(), "u1", defaultQuery)
	assert.ErrorIs(t, err, dbErr)
	assert.Nil(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingTaskRepository_WritesBumpGeneration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(repo *CachingTaskRepository) error
	}{
		{"create", func(repo *CachingTaskRepository) error {
			return repo.Create(context.Background(), &entity.Task{ID: "t1", Owner: "u1"})
		}},
		{"update", func(repo *CachingTaskRepository) error {
			return repo.Update(context.Background(), &entity.Task{ID: "t1", Owner: "u1"})
		}},
		{"delete", func(repo *CachingTaskRepository) error {
			_, err := repo.Delete(context.Background(), "u1", "t1")
			return err
		}},
		{"delete by owner", func(repo *CachingTaskRepository) error {
			_, err := repo.DeleteByOwner(context.Background(), "u1")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rdb, mock := redismock.NewClientMock()
			defer func() { _ = rdb.Close() }()

			mock.ExpectIncr(genKey).SetVal(1)

			repo := NewCachingTaskRepository(rdb, time.Minute, &mockTaskRepository{}, "tasks")
			require.NoError(t, tt.write(repo))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCachingTaskRepository_FailedWriteKeepsCache(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	dbErr := errors.New("database error")
	inner := &mockTaskRepository{
		createFn: func(ctx context.Context, t *entity.Task) error { return dbErr },
	}

	repo := NewCachingTaskRepository(rdb, time.Minute, inner, "tasks")
	err := repo.Create(context.Background(), &entity.Task{ID: "t1", Owner: "u1"})
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingTaskRepository_InvalidationErrorIgnored(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectIncr(genKey).SetErr(errors.New("redis down"))

	repo := NewCachingTaskRepository(rdb, time.Minute, &mockTaskRepository{}, "tasks")
	n, err := repo.DeleteByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingTaskRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	stored := []entity.Task{{ID: "t1", Description: "first", Owner: "u1"}}
	calls := 0
	inner := &mockTaskRepository{
		listFn: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
			calls++
			return append([]entity.Task{}, stored...), nil
		},
		createFn: func(ctx context.Context, t *entity.Task) error {
			stored = append(stored, *t)
			return nil
		},
	}

	repo := NewCachingTaskRepository(rdb, time.Minute, inner, "tasks")
	ctx := context.Background()

	first, err := repo.List(ctx, "u1", defaultQuery)
	require.NoError(t, err)
	second, err := repo.List(ctx, "u1", defaultQuery)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(defaultKey))

	require.NoError(t, repo.Create(ctx, &entity.Task{ID: "t2", Description: "second", Owner: "u1"}))
	gen, err := mr.Get(genKey)
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.False(t, mr.Exists("tasks:gen:u2"), "other owners keep their generation")

	third, err := repo.List(ctx, "u1", defaultQuery)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, calls)
}

func TestCachingTaskRepository_WriteDuringListIsNotShadowed(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	var repo *CachingTaskRepository
	stored := []entity.Task{{ID: "t1", Owner: "u1"}}
	calls := 0
	inner := &mockTaskRepository{
		listFn: func(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
			calls++
			snapshot := append([]entity.Task{}, stored...)
			if calls == 1 {
				// a write lands after the snapshot was read but before it is cached
				require.NoError(t, repo.Create(ctx, &entity.Task{ID: "t2", Owner: "u1"}))
			}
			return snapshot, nil
		},
		createFn: func(ctx context.Context, t *entity.Task) error {
			stored = append(stored, *t)
			return nil
		},
	}
	repo = NewCachingTaskRepository(rdb, time.Minute, inner, "tasks")
	ctx := context.Background()

	stale, err := repo.List(ctx, "u1", defaultQuery)
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	fresh, err := repo.List(ctx, "u1", defaultQuery)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Equal(t, 2, calls)
}

func TestSafe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"with space", "with_space"},
		{"a:b", "a_b"},
		{"glob*?[x]", "glob___x_"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safe(tt.in))
	}
}
