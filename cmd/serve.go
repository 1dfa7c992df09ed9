package cmd

import (
	"context"
	"database/sql"
	"net"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-todo/app/controller"
	"github.com/vibast-solutions/ms-go-todo/app/middleware"
	"github.com/vibast-solutions/ms-go-todo/app/repository"
	"github.com/vibast-solutions/ms-go-todo/app/service"
	"github.com/vibast-solutions/ms-go-todo/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	rdb := newRedisClient(cfg)

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	resetTokenRepo := repository.NewPasswordResetTokenRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	issuer := service.NewTokenIssuer(cfg)
	authService := service.NewAuthService(db, userRepo, sessionRepo, auditLogRepo, issuer, cfg)
	resetService := service.NewPasswordResetService(db, userRepo, sessionRepo, resetTokenRepo, auditLogRepo, cfg)
	taskService := service.NewTaskService(taskRepo)

	startHTTPServer(cfg, rdb, issuer, userRepo, authService, resetService, taskService)
}

func startHTTPServer(
	cfg *config.Config,
	rdb *redis.Client,
	issuer *service.TokenIssuer,
	userRepo *repository.UserRepository,
	authService *service.AuthService,
	resetService *service.PasswordResetService,
	taskService *service.TaskService,
) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	authController := controller.NewAuthController(authService)
	resetController := controller.NewPasswordResetController(resetService)
	taskController := controller.NewTaskController(taskService)
	authMiddleware := middleware.NewAuthMiddleware(issuer, userRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, rdb)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/auth")
	auth.POST("/join", authController.Join)
	auth.POST("/login", authController.Login, rateLimiter)
	auth.POST("/refresh", authController.Refresh)
	auth.POST("/password-reset/request", resetController.Request, rateLimiter)
	auth.POST("/password-reset/validate", resetController.Validate)
	auth.POST("/password-reset/complete", resetController.Complete)

	authProtected := auth.Group("")
	authProtected.Use(authMiddleware.RequireRole(service.RoleTaskUser))
	authProtected.POST("/logout", authController.Logout)

	tasks := e.Group("/tasks")
	tasks.Use(authMiddleware.RequireRole(service.RoleTaskUser))
	tasks.POST("", taskController.Create)
	tasks.GET("", taskController.Search)
	tasks.GET("/:taskId", taskController.Get)
	tasks.PUT("/:taskId", taskController.Update)
	tasks.DELETE("/:taskId", taskController.Delete)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

func configureLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// newRedisClient returns nil when redis is not configured or not
// reachable; rate limiting degrades to a no-op in that case.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, rate limiting disabled")
		_ = rdb.Close()
		return nil
	}

	return rdb
}
