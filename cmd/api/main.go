package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rfpflow/rfpflow-backend/internal/audit"
	"github.com/rfpflow/rfpflow-backend/internal/db"
	"github.com/rfpflow/rfpflow-backend/internal/handlers"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/realtime/bus"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/server"
	"github.com/rfpflow/rfpflow-backend/internal/services"
	"github.com/rfpflow/rfpflow-backend/internal/sse"
)

func main() {
	// Logger
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Queue + event bus
	jobQueue, err := queue.NewRedisQueue(log)
	if err != nil {
		log.Error("Could not init job queue", "error", err)
		os.Exit(1)
	}
	eventBus, err := bus.NewRedisBus(log)
	if err != nil {
		log.Error("Could not init event bus", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()
	notifier := realtime.NewNotifier(log, eventBus)

	// Blob storage
	blobs, err := blobstore.New(log)
	if err != nil {
		log.Error("Could not init blob store", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up repos...")
	documentRepo := repos.NewDocumentRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	auditRepo := repos.NewQuestionAnswerAuditRepo(thePG, log)
	exportJobRepo := repos.NewExportJobRepo(thePG, log)
	qaPairRepo := repos.NewProjectQAPairRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub...")
	sseHub := sse.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eventBus.StartForwarder(ctx, sseHub.Broadcast); err != nil {
		log.Error("Could not start event forwarder", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up services...")
	tracker := audit.NewTracker(log, auditRepo)
	documentService := services.NewDocumentService(log, documentRepo, blobs, jobQueue, notifier)
	questionService := services.NewQuestionService(log, questionRepo, auditRepo, tracker, notifier)
	exportService := services.NewExportService(log, exportJobRepo, documentRepo, jobQueue, notifier)
	qaPairService := services.NewQAPairService(log, qaPairRepo, jobQueue)

	// Router
	log.Info("Setting up router...")
	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		DocumentHandler: handlers.NewDocumentHandler(log, documentService),
		QuestionHandler: handlers.NewQuestionHandler(log, questionService),
		ExportHandler:   handlers.NewExportHandler(log, exportService, blobs),
		QAPairHandler:   handlers.NewQAPairHandler(log, qaPairService),
		QueueAdmin:      handlers.NewQueueAdminHandler(log, jobQueue),
		SSEHandler:      handlers.NewSSEHandler(log, sseHub),
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
