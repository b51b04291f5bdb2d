package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "collabolab/docs"
	"collabolab/internal/auth"
	"collabolab/internal/config"
	"collabolab/internal/handler"
	"collabolab/internal/logger"
	"collabolab/internal/metrics"
	"collabolab/internal/middleware"
	"collabolab/internal/push"
	"collabolab/internal/repository"
	"collabolab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Hub    *push.Hub
	Config *config.Config
	Log    *logger.Logger
}

// Init connects to the database, applies migrations when enabled and wires
// the HTTP routes.
func Init(cfg *config.Config, log *logger.Logger) (*Server, error) {
	if cfg.AutoMigrate {
		if err := repository.Migrate(cfg.DatabaseURL()); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("database migrations applied")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	log.Info("connected to database", "host", cfg.DBHost, "db", cfg.DBName)

	hub := push.NewHub(log)
	engine := NewRouter(cfg, repository.NewStore(db), hub, log, pingDB(db))

	return &Server{
		Engine: engine,
		DB:     db,
		Hub:    hub,
		Config: cfg,
		Log:    log,
	}, nil
}

// NewRouter builds the services over store and registers every route.
// ping backs the health check and may be nil.
func NewRouter(cfg *config.Config, store repository.Store, hub *push.Hub, log *logger.Logger, ping func(context.Context) error) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), metrics.Middleware())

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	notifier := service.NewNotifier(store, hub, cfg.PushTimeout, log)
	messenger := service.NewMessenger(store, notifier, log)
	membership := service.NewMembership(store, notifier, messenger, log)
	invites := service.NewInvites(store, membership, notifier, messenger, cfg.InvitesRequired, log)
	tasks := service.NewTasks(store, notifier, messenger, log)
	accounts := service.NewAccounts(store, tokens, notifier, log)
	projects := service.NewProjects(store, notifier, log)
	permissions := service.NewPermissions(store, log)

	accountHandler := handler.NewAccountHandler(accounts, notifier, membership)
	projectHandler := handler.NewProjectHandler(projects, membership, invites, permissions, messenger)
	taskHandler := handler.NewTaskHandler(tasks, permissions)
	pushHandler := handler.NewPushHandler(accounts, hub)

	r.GET("/health", func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/createUser", accountHandler.CreateUser)
	r.POST("/login", accountHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Accounts
		authorized.GET("/ws", pushHandler.Connect)
		authorized.POST("/searchUser", accountHandler.SearchUser)
		authorized.POST("/registerDevice", accountHandler.RegisterDevice)
		authorized.POST("/listUpdates", accountHandler.ListUpdates)
		authorized.POST("/notifyUser", accountHandler.NotifyUser)
		authorized.POST("/deleteUser", accountHandler.DeleteUser)

		// Projects and membership
		authorized.POST("/createProject", projectHandler.Create)
		authorized.POST("/getProject", projectHandler.Get)
		authorized.POST("/deleteProject", projectHandler.Delete)
		authorized.POST("/inviteUser", projectHandler.InviteUser)
		authorized.POST("/acceptInvite", projectHandler.AcceptInvite)
		authorized.POST("/declineInvite", projectHandler.DeclineInvite)
		authorized.POST("/listInvites", projectHandler.ListInvites)
		authorized.POST("/removeFromProject", projectHandler.RemoveFromProject)
		authorized.POST("/getPermissions", projectHandler.GetPermissions)
		authorized.POST("/setPermissions", projectHandler.SetPermissions)

		// Chat
		authorized.POST("/sendChatMessage", projectHandler.SendChatMessage)
		authorized.POST("/listChat", projectHandler.ListChat)

		// Tasks
		authorized.POST("/createTask", taskHandler.Create)
		authorized.POST("/editTask", taskHandler.Edit)
		authorized.POST("/deleteTask", taskHandler.Delete)
		authorized.POST("/assignTask", taskHandler.Assign)
		authorized.POST("/updateTask", taskHandler.Update)
		authorized.POST("/sendTaskToReview", taskHandler.SendToReview)
		authorized.POST("/approveTask", taskHandler.Approve)
		authorized.POST("/getUserTasks", taskHandler.UserTasks)
		authorized.POST("/listTasks", taskHandler.List)
		authorized.POST("/getTask", taskHandler.Get)
	}
	return r
}

func pingDB(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Run serves until SIGINT or SIGTERM and then shuts down gracefully.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info("server running", "port", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to listen: %w", err)
	case <-quit:
	}
	s.Log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	s.Log.Info("server exited properly")
	return nil
}
