package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rfpflow/rfpflow-backend/internal/handlers"
	"github.com/rfpflow/rfpflow-backend/internal/middleware"
	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	DocumentHandler *handlers.DocumentHandler
	QuestionHandler *handlers.QuestionHandler
	ExportHandler   *handlers.ExportHandler
	QAPairHandler   *handlers.QAPairHandler
	QueueAdmin      *handlers.QueueAdminHandler
	SSEHandler      *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     envutil.StringList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Tenant-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.RequireTenant())
	{
		// Documents
		api.POST("/documents", cfg.DocumentHandler.Upload)
		api.GET("/documents", cfg.DocumentHandler.List)
		api.GET("/documents/:id", cfg.DocumentHandler.Get)
		api.POST("/documents/:id/reprocess", cfg.DocumentHandler.Reprocess)
		// Questions
		api.GET("/questions", cfg.QuestionHandler.ListByDeal)
		api.GET("/questions/:id", cfg.QuestionHandler.Get)
		api.PUT("/questions/:id/answer", cfg.QuestionHandler.EditAnswer)
		api.GET("/questions/:id/history", cfg.QuestionHandler.History)
		// Exports
		api.POST("/exports", cfg.ExportHandler.Trigger)
		api.GET("/exports/:id", cfg.ExportHandler.Get)
		api.GET("/exports/:id/download", cfg.ExportHandler.Download)
		// Knowledge-base Q&A pairs
		api.POST("/qa-pairs", cfg.QAPairHandler.Create)
		api.PUT("/qa-pairs/:id", cfg.QAPairHandler.Update)
		api.GET("/qa-pairs", cfg.QAPairHandler.ListByProject)
		// Events
		api.GET("/events", cfg.SSEHandler.Stream)
	}

	admin := router.Group("/api/admin")
	{
		admin.GET("/queues", cfg.QueueAdmin.Lengths)
		admin.DELETE("/queues/:name", cfg.QueueAdmin.Clear)
	}

	return router
}
