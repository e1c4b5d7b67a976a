// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"task_backend/internal/config"
	tasksadapters "task_backend/internal/feature/tasks/adapters"
	tasksusecase "task_backend/internal/feature/tasks/usecase"
	usersadapters "task_backend/internal/feature/users/adapters"
	usersusecase "task_backend/internal/feature/users/usecase"
	"task_backend/internal/platform/db"
	"task_backend/internal/platform/http/handler"
	"task_backend/internal/platform/mongodb"
)

// Stores bundles the repositories of the configured storage driver.
type Stores struct {
	Users usersusecase.UserRepository
	Tasks tasksusecase.TaskRepository
	// Check pings the backing store for the readiness endpoint.
	Check handler.Check

	close func() error
}

// Close releases the underlying connections.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewStores connects to the configured storage driver and returns its repositories.
func NewStores(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	switch cfg.Driver {
	case config.StorageMongo:
		return newMongoStores(ctx, cfg)
	case config.StoragePostgres, config.StorageSQLite:
		return newRelationalStores(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func newRelationalStores(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	models := append(usersadapters.Models(), tasksadapters.Models()...)
	gdb, err := db.Open(ctx, db.Config{
		Driver:        cfg.Driver,
		DSN:           cfg.URL,
		RunMigrations: cfg.RunMigrations,
	}, models...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == config.StorageSQLite {
		// one writer at a time; also keeps a :memory: database on a single connection
		sqlDB.SetMaxOpenConns(1)
	}

	return &Stores{
		Users: usersadapters.NewUserGorm(gdb),
		Tasks: tasksadapters.NewTaskGorm(gdb),
		Check: sqlDB.PingContext,
		close: func() error { return db.Close(gdb) },
	}, nil
}

func newMongoStores(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	client, database, err := mongodb.Connect(ctx, cfg.URL, cfg.Database)
	if err != nil {
		return nil, err
	}

	users := usersadapters.NewUserMongo(database)
	tasks := tasksadapters.NewTaskMongo(database)
	if cfg.RunMigrations {
		if err := errors.Join(users.EnsureIndexes(ctx), tasks.EnsureIndexes(ctx)); err != nil {
			_ = mongodb.Disconnect(client, 5*time.Second)
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	return &Stores{
		Users: users,
		Tasks: tasks,
		Check: func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		close: func() error { return mongodb.Disconnect(client, 10*time.Second) },
	}, nil
}
