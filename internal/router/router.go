// Package router assembles the HTTP routes of the API.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/config"
	apierrors "github.com/yukikurage/construction-pm-api/internal/errors"
	"github.com/yukikurage/construction-pm-api/internal/handlers"
	"github.com/yukikurage/construction-pm-api/internal/middleware"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"github.com/yukikurage/construction-pm-api/internal/services"
)

// Dependencies holds everything the routes need.
type Dependencies struct {
	Logger         *logrus.Logger
	Ping           func(ctx context.Context) error
	CORS           config.CORSConfig
	UploadDir      string
	Tokens         *auth.TokenManager
	Users          repository.UserRepository
	AuthService    *services.AuthService
	UserService    *services.UserService
	ProjectService *services.ProjectService
	TaskService    *services.TaskService
}

// Setup builds the gin engine with every route under /api.
func Setup(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(deps.Logger), gin.Recovery(), middleware.CORS(deps.CORS))

	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	authHandler := handlers.NewAuthHandler(deps.AuthService)
	projectHandler := handlers.NewProjectHandler(deps.ProjectService, deps.TaskService)
	taskHandler := handlers.NewTaskHandler(deps.TaskService)
	userHandler := handlers.NewUserHandler(deps.UserService)
	adminHandler := handlers.NewAdminHandler(deps.UserService)

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Users)
	projectID := middleware.RequireIDParam("project")
	taskID := middleware.RequireIDParam("task")
	userID := middleware.RequireIDParam("user")

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			if deps.Ping != nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				defer cancel()
				if err := deps.Ping(ctx); err != nil {
					deps.Logger.WithError(err).Warn("Health check failed")
					apierrors.ServiceUnavailable(c, "Backing store unreachable")
					return
				}
			}
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"message": "Construction management API is running",
			})
		})

		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/signin", authHandler.Signin)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
			authRoutes.POST("/reset-password/request", authHandler.RequestPasswordReset)
			authRoutes.POST("/reset-password", authHandler.ResetPassword)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/my-projects", middleware.RequireManagerOrAdmin(), projectHandler.ListMyProjects)
			projects.POST("", middleware.RequireRole(models.RoleAdmin), projectHandler.CreateProject)
			projects.GET("/:id", projectID, projectHandler.GetProject)
			projects.GET("/:id/tasks", projectID, projectHandler.ListProjectTasks)
			projects.PUT("/:id", projectID, projectHandler.UpdateProject)
			projects.DELETE("/:id", projectID, projectHandler.DeleteProject)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/my-tasks", taskHandler.ListMyTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskID, taskHandler.GetTask)
			tasks.PUT("/:id", taskID, taskHandler.UpdateTask)
			tasks.PUT("/:id/status", taskID, taskHandler.UpdateTaskStatus)
			tasks.PUT("/:id/actual-hours", taskID, taskHandler.UpdateActualHours)
			tasks.POST("/:id/comments", taskID, taskHandler.AddComment)
			tasks.POST("/:id/attachments", taskID, taskHandler.AddAttachment)
			tasks.DELETE("/:id", taskID, taskHandler.DeleteTask)
		}

		// Profile routes (protected)
		user := api.Group("/user")
		user.Use(requireAuth)
		{
			user.GET("/profile", userHandler.GetProfile)
			user.PUT("/profile", userHandler.UpdateProfile)
			user.POST("/profile/image", userHandler.UploadProfileImage)
			user.GET("/check-token", userHandler.CheckToken)
		}

		// Worker directory (protected)
		workers := api.Group("/workers")
		workers.Use(requireAuth)
		{
			workers.GET("", userHandler.ListWorkers)
			workers.GET("/search", userHandler.SearchWorkers)
		}

		// Admin routes (protected, admin only)
		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.CreateUser)
			admin.POST("/users/search", adminHandler.SearchUsers)
			admin.GET("/users/:id", userID, adminHandler.GetUser)
			admin.PUT("/users/:id", userID, adminHandler.UpdateUser)
			admin.PUT("/users/:id/roles", userID, adminHandler.UpdateUserRoles)
			admin.PUT("/users/:id/status", userID, adminHandler.SetUserStatus)
			admin.DELETE("/users/:id", userID, adminHandler.DeleteUser)
			admin.GET("/managers", adminHandler.ListManagers)
		}
	}

	return r
}
