package main

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/config"
	"github.com/yukikurage/construction-pm-api/internal/database"
	"github.com/yukikurage/construction-pm-api/internal/notify"
	"github.com/yukikurage/construction-pm-api/internal/redisdb"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"github.com/yukikurage/construction-pm-api/internal/router"
	"github.com/yukikurage/construction-pm-api/internal/services"
	"github.com/yukikurage/construction-pm-api/internal/storage"
	"github.com/yukikurage/construction-pm-api/internal/validation"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logger := logrus.New()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)
	if cfg.Server.GinMode == gin.ReleaseMode {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	if err := validation.Register(); err != nil {
		logger.WithError(err).Fatal("Failed to register validators")
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	if err := roleRepo.EnsureRoles(); err != nil {
		logger.WithError(err).Fatal("Failed to seed roles")
	}

	// Reset codes live in redis when it is enabled
	resetCodes := repository.NewResetCodeStore(db)
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redisdb.NewClient(cfg)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Fatal("Failed to connect to redis")
		}
		defer rdb.Close()
		resetCodes = redisdb.NewResetCodeStore(rdb)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("Failed to get database handle")
	}
	ping := func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireDuration())
	files := storage.NewLocalStore(cfg.Upload.Dir, "/uploads")

	// Services
	authService := services.NewAuthService(userRepo, roleRepo, tokens, resetCodes, notify.NewLogMailer(logger), cfg.PasswordReset.CodeTTL())
	userService := services.NewUserService(userRepo, roleRepo, files, cfg.Upload.MaxImageBytes)
	projectService := services.NewProjectService(projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, files, cfg.Upload.MaxAttachmentBytes)

	created, err := authService.EnsureAdmin(services.AdminBootstrap{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		FullName: cfg.Admin.FullName,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create admin account")
	}
	if created {
		logger.WithField("username", cfg.Admin.Username).Info("Admin account created")
	}

	r := router.Setup(router.Dependencies{
		Logger:         logger,
		Ping:           ping,
		CORS:           cfg.CORS,
		UploadDir:      filepath.Clean(files.Root()),
		Tokens:         tokens,
		Users:          userRepo,
		AuthService:    authService,
		UserService:    userService,
		ProjectService: projectService,
		TaskService:    taskService,
	})

	// Start server
	logger.WithField("address", cfg.Server.Address()).Info("Server starting")
	if err := r.Run(cfg.Server.Address()); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}
