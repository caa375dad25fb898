package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/taskify/internal/auth"
	"github.com/geocoder89/taskify/internal/cache"
	"github.com/geocoder89/taskify/internal/config"
	"github.com/geocoder89/taskify/internal/http/handlers"
	"github.com/geocoder89/taskify/internal/http/middlewares"
	"github.com/geocoder89/taskify/internal/observability"
	"github.com/geocoder89/taskify/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	prom := observability.NewProm()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("taskify-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(prom.GinHandleMiddleware())

	// health + metrics

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", prom.Handler())

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(pool, prom)
	tasksRepo := postgres.NewTasksRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	listCache := cache.New(5 * time.Second)

	// credential endpoints get the tightest limits; prefer the shared redis
	// window when a redis client is wired, per-process buckets otherwise
	var authLimiter gin.HandlerFunc

	if rdb != nil {
		authLimiter = middlewares.NewRedisRateLimiter(rdb, 10, time.Minute, prom).Middleware(middlewares.KeyByIP)
	} else {
		authLimiter = middlewares.NewRateLimiter(10, time.Minute).Middleware(middlewares.KeyByIP)
	}

	apiLimiter := middlewares.NewRateLimiter(120, time.Minute).Middleware(middlewares.KeyByUserOrIP)

	// handlers

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, refreshRepo, cfg)
	tasksHandler := handlers.NewTasksHandler(tasksRepo, listCache)
	usersHandler := handlers.NewUsersHandler(usersRepo, refreshRepo)

	// public routes

	authGroup := r.Group("/auth")
	authGroup.Use(authLimiter)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// bearer-gated routes

	tasksGroup := r.Group("/tasks")
	tasksGroup.Use(authMw.RequireAuth(), apiLimiter)
	{
		tasksGroup.GET("", tasksHandler.List)
		tasksGroup.POST("", tasksHandler.Create)
		tasksGroup.PATCH("/:id", tasksHandler.Update)
		tasksGroup.DELETE("/:id", tasksHandler.Delete)
	}

	usersGroup := r.Group("/users")
	usersGroup.Use(authMw.RequireAuth(), apiLimiter)
	{
		usersGroup.GET("/me", usersHandler.GetMe)
		usersGroup.PATCH("/me", usersHandler.UpdateMe)
		usersGroup.DELETE("/me", usersHandler.DeleteMe)
	}

	return r
}
