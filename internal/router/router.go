package router

import (
	"time"

	"github.com/berai-dev/berai/internal/handlers"
	"github.com/berai-dev/berai/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(h *handlers.Handler, users middleware.UserGetter, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireAuth := middleware.AuthMiddleware(users)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/enums", requireAuth, h.Enums)
		api.GET("/ws/:project_id", requireAuth, h.WebSocket)
		api.GET("/dashboard", requireAuth, h.GetDashboard)
		api.GET("/notifications", requireAuth, h.ListNotifications)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/logout", requireAuth, h.Logout)
			auth.GET("/me", requireAuth, h.Me)
			auth.PATCH("/me", requireAuth, h.UpdateMe)
		}

		projects := api.Group("/projects", requireAuth)
		{
			projects.GET("", h.ListProjects)
			projects.POST("", h.CreateProject)
			projects.GET("/:project_id", h.ShowProject)
			projects.PUT("/:project_id", h.UpdateProject)
			projects.DELETE("/:project_id", h.DeleteProject)
			projects.GET("/:project_id/history", h.ProjectHistory)

			projects.GET("/:project_id/members", h.ListMembers)
			projects.POST("/:project_id/members", h.InviteMember)

			projects.POST("/:project_id/tasks", h.CreateTask)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.GET("", h.ListTasks)
			tasks.PATCH("/:task_id/status", h.UpdateTaskStatus)
			tasks.PATCH("/:task_id/priority", h.UpdateTaskPriority)
			tasks.DELETE("/:task_id", h.DeleteTask)

			tasks.GET("/:task_id/comments", h.ListComments)
			tasks.POST("/:task_id/comments", h.AddComment)
		}
	}

	return r
}
