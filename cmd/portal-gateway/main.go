package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/appdev-aems/portal-api/api/swagger"
	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/handler"
	"github.com/appdev-aems/portal-api/internal/kvstore"
	"github.com/appdev-aems/portal-api/internal/middleware"
	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/internal/service"
	"github.com/appdev-aems/portal-api/internal/session"
	syncpkg "github.com/appdev-aems/portal-api/internal/sync"
	"github.com/appdev-aems/portal-api/pkg/bus"
	"github.com/appdev-aems/portal-api/pkg/config"
	"github.com/appdev-aems/portal-api/pkg/jobs"
	"github.com/appdev-aems/portal-api/pkg/logger"
	corsmiddleware "github.com/appdev-aems/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/appdev-aems/portal-api/pkg/middleware/requestid"
)

// @title AEMS Portal API
// @version 0.1.0
// @description Enrollment portal gateway over the registrar backend
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis carries both the KV namespaces and the change bus. When it is
	// unreachable at startup the portal degrades to in-process equivalents
	// rather than refusing to start.
	var (
		backend kvstore.Backend
		msgBus  bus.Bus
	)
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	err = rdb.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		logr.Warn("redis unreachable, using in-memory storage and bus", zap.Error(err))
		backend = kvstore.NewMemoryBackend()
		msgBus = bus.NewMemory()
	} else {
		backend = kvstore.NewRedisBackend(rdb)
		msgBus = bus.NewRedis(rdb, logr)
	}
	defer msgBus.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	registrar := client.New(cfg.Registrar.BaseURL, cfg.Registrar.Timeout, logr)
	registrar.SetObserver(metricsSvc.ObserveRegistrarCall)

	reconciler := session.NewReconciler(registrar, logr)
	reconcile := func(ctx context.Context, job jobs.Job) error {
		metricsSvc.ObserveReconcileJob(job.Type)
		return reconciler.Handle(ctx, job)
	}
	queue := jobs.NewQueue("reconcile", reconcile, jobs.QueueConfig{
		Workers:    cfg.Reconcile.Workers,
		BufferSize: cfg.Reconcile.BufferSize,
		MaxRetries: cfg.Reconcile.MaxRetries,
		RetryDelay: cfg.Reconcile.RetryDelay,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	broadcaster := syncpkg.NewBroadcaster(backend, msgBus, logr)
	broadcaster.SetObserver(metricsSvc.ObserveBroadcast)
	watcher := syncpkg.NewWatcher(ctx, backend, msgBus, logr)
	defer watcher.Close()

	sessions := session.NewRegistry(session.Options{
		StoreFactory: func(ctx context.Context) *kvstore.Store {
			return kvstore.New(ctx, backend, msgBus, logr)
		},
		Registrar:   registrar,
		Broadcaster: broadcaster,
		Dispatcher:  queue,
		Logger:      logr,
		PerUnitRate: cfg.Billing.PerUnitRate,
	})
	sessions.SetObserver(metricsSvc.SetActiveSessions)
	defer sessions.Close()

	validate := validator.New()
	authSvc := service.NewAuthService(registrar, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	paymentSvc := service.NewPaymentService(registrar, validate, logr)
	facultySvc := service.NewFacultyService(registrar, watcher, broadcaster, logr, service.FacultyConfig{
		PollInterval: cfg.Sync.PollInterval,
		CacheTTL:     cfg.Sync.CacheTTL,
	})
	if cfg.Faculty.Enabled {
		go facultySvc.StartPoller(ctx)
		defer facultySvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc, sessions)
	sessionHandler := handler.NewSessionHandler(sessions)
	courseHandler := handler.NewCourseHandler(sessions)
	notificationHandler := handler.NewNotificationHandler(sessions)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	facultyHandler := handler.NewFacultyHandler(facultySvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		status := gin.H{"status": "ready", "storage": "memory"}
		if _, ok := backend.(*kvstore.RedisBackend); ok {
			status["storage"] = "redis"
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	guarded := api.Group("")
	guarded.Use(middleware.JWT(authSvc))

	sess := guarded.Group("/session")
	sess.GET("", sessionHandler.State)
	sess.POST("/enroll/:id", sessionHandler.Enroll)
	sess.POST("/drop/:id", sessionHandler.Drop)
	sess.POST("/reserve/:id", sessionHandler.ToggleReserve)
	sess.POST("/submit", sessionHandler.Submit)
	sess.PUT("/profile", sessionHandler.UpdateProfile)
	sess.PUT("/department", sessionHandler.SetDepartment)
	sess.GET("/schedule", sessionHandler.Schedule)
	sess.GET("/billing", sessionHandler.Billing)
	sess.POST("/logout", sessionHandler.Logout)

	courses := guarded.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/departments", courseHandler.Departments)
	admin := courses.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
	admin.POST("", courseHandler.Create)
	admin.PUT("/:id", courseHandler.Update)
	admin.DELETE("/:id", courseHandler.Delete)

	notifications := guarded.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.POST("/:id/read", notificationHandler.MarkRead)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)

	payments := guarded.Group("/payments")
	payments.GET("/student/:studentId", paymentHandler.ListByStudent)
	payments.POST("", paymentHandler.Create)
	payments.PUT("/:id", paymentHandler.Update)
	payments.DELETE("/:id", paymentHandler.Delete)

	if cfg.Faculty.Enabled {
		faculty := guarded.Group("/faculty")
		faculty.Use(middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin))
		faculty.GET("/records", facultyHandler.Records)
		faculty.GET("/stats", facultyHandler.Stats)
		faculty.POST("/approve/:studentId", facultyHandler.Approve)
		faculty.GET("/statistics", facultyHandler.Statistics)
		faculty.GET("/charts/:name", facultyHandler.Chart)
		faculty.GET("/export", facultyHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
