package di

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"task_backend/internal/app/router"
	"task_backend/internal/config"
	taskshandler "task_backend/internal/feature/tasks/transport/handler"
	tasksusecase "task_backend/internal/feature/tasks/usecase"
	usershandler "task_backend/internal/feature/users/transport/handler"
	usersusecase "task_backend/internal/feature/users/usecase"
	"task_backend/internal/platform/http/handler"
	"task_backend/internal/platform/http/middleware"
	"task_backend/internal/platform/imaging"
	jwtmw "task_backend/internal/platform/jwt"
	"task_backend/internal/platform/mail"
	infraredis "task_backend/internal/platform/redis"
)

// App holds the wired HTTP engine and the resources that must be released on shutdown.
type App struct {
	Router       *gin.Engine
	Notifier     *mail.Notifier
	LoginLimiter *middleware.IPRateLimiter

	stores *Stores
	rdb    *redisv9.Client
}

// Build connects every backing service named in cfg and wires the handlers.
// Redis is optional: when it cannot be reached the app runs without cache.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	stores, err := NewStores(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	app := &App{stores: stores}

	checks := map[string]handler.Check{"storage": stores.Check}
	if cfg.Redis.Enabled() {
		if rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password); err != nil {
			zap.L().Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			app.rdb = rdb
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	notifier, err := NewNotifier(cfg.Mail)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Notifier = notifier

	// Repository
	taskRepo := NewTaskRepository(app.rdb, cfg.Redis.CacheTTL, stores.Tasks)

	// Usecase
	codec := jwtmw.NewCodec(cfg.JWT.Secret)
	userUC := usersusecase.NewUserUsecase(stores.Users, taskRepo, codec, notifier, imaging.NewAvatarProcessor(), cfg.Security.BcryptCost)
	taskUC := tasksusecase.NewTaskUsecase(taskRepo)

	// Handler
	userH := usershandler.NewUserHandler(userUC)
	taskH := taskshandler.NewTaskHandler(taskUC)

	opts := router.Options{
		Auth:           jwtmw.AuthRequired(codec, userUC),
		CORSOrigins:    cfg.Host.CORSOrigins,
		TrustedProxies: cfg.Host.TrustedProxies,
		ReadyChecks:    checks,
	}
	if cfg.Security.LoginRateLimit > 0 {
		app.LoginLimiter = middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.Security.LoginRateLimit,
		})
		opts.LoginLimiter = app.LoginLimiter.Middleware()
	}

	r, err := router.NewRouter(userH, taskH, opts)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Router = r
	return app, nil
}

// Close waits for queued mail and releases Redis and storage connections.
func (a *App) Close() error {
	if a.Notifier != nil {
		a.Notifier.Wait()
	}
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.stores != nil {
		errs = append(errs, a.stores.Close())
	}
	return errors.Join(errs...)
}
