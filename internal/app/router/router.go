// Package router assembles the Gin engine and its routes.
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"task_backend/internal/api"
	taskshandler "task_backend/internal/feature/tasks/transport/handler"
	usershandler "task_backend/internal/feature/users/transport/handler"
	"task_backend/internal/platform/http/handler"
	"task_backend/internal/platform/http/middleware"
	"task_backend/internal/platform/imaging"
	jwtmw "task_backend/internal/platform/jwt"
)

// avatarBodyLimit bounds the whole multipart request of an avatar upload.
const avatarBodyLimit = 2 << 20

// Options carries the middleware and settings the routes depend on.
type Options struct {
	// Auth guards every route that needs a session.
	Auth gin.HandlerFunc
	// LoginLimiter throttles POST /users/login. Nil disables throttling.
	LoginLimiter gin.HandlerFunc
	// CORSOrigins lists the allowed origins. Empty allows any origin.
	CORSOrigins []string
	// TrustedProxies may set the client IP through forwarding headers. Empty trusts none.
	TrustedProxies []string
	// ReadyChecks are run by /readyz.
	ReadyChecks map[string]handler.Check
}

// NewRouter returns the engine serving every endpoint of the API.
func NewRouter(users *usershandler.UserHandler, tasks *taskshandler.TaskHandler, opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	r.Use(
		middleware.RequestID(),
		cors.New(corsConfig(opts.CORSOrigins)),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}
				if v := c.GetString(api.ContextRequestID); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}
				if v := c.GetString(jwtmw.ContextUserID); v != "" {
					fields = append(fields, zap.String("userID", v))
				}
				return fields
			},
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
	)

	r.NoRoute(func(c *gin.Context) {
		api.Abort(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		api.Abort(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Liveness and readiness
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.OPTIONS("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(opts.ReadyChecks, 3*time.Second))

	auth := opts.Auth
	login := []gin.HandlerFunc{users.Login}
	if opts.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{opts.LoginLimiter}, login...)
	}

	u := r.Group("/users")
	{
		// POST /users             -> register
		u.POST("", users.Register)
		// POST /users/login       -> open a session
		u.POST("/login", login...)
		// POST /users/logout      -> end the current session
		u.POST("/logout", auth, users.Logout)
		// POST /users/logoutAll   -> end every session
		u.POST("/logoutAll", auth, users.LogoutAll)

		u.GET("/me", auth, users.Me)
		u.PATCH("/me", auth, users.Update)
		u.DELETE("/me", auth, users.Delete)

		// POST /users/me/avatar   -> multipart field avatarPic
		u.POST("/me/avatar", auth,
			middleware.BodySizeLimiter(avatarBodyLimit, http.StatusBadRequest, imaging.ErrFileTooLarge.Error()),
			users.UploadAvatar)
		u.DELETE("/me/avatar", auth, users.DeleteAvatar)
		// GET /users/:id/avatar   -> public PNG
		u.GET("/:id/avatar", users.Avatar)
	}

	t := r.Group("/tasks", auth)
	{
		t.POST("", tasks.Create)
		t.GET("", tasks.List)
		t.GET("/:id", tasks.Get)
		t.PATCH("/:id", tasks.Update)
		t.DELETE("/:id", tasks.Delete)
	}

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
