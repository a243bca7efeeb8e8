package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rfpflow/rfpflow-backend/internal/answering"
	"github.com/rfpflow/rfpflow-backend/internal/audit"
	"github.com/rfpflow/rfpflow-backend/internal/db"
	"github.com/rfpflow/rfpflow-backend/internal/export"
	"github.com/rfpflow/rfpflow-backend/internal/extraction"
	"github.com/rfpflow/rfpflow-backend/internal/ingestion"
	"github.com/rfpflow/rfpflow-backend/internal/ingestion/extractor"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/llm"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/platform/qdrant"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/realtime/bus"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/workers"
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

	// LLM + vector store
	llmClient, err := llm.NewClient(log)
	if err != nil {
		log.Error("Could not init LLM client", "error", err)
		os.Exit(1)
	}
	qdrantCfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		log.Error("Invalid qdrant config", "error", err)
		os.Exit(1)
	}
	vectors, err := qdrant.NewStore(log, qdrantCfg)
	if err != nil {
		log.Error("Could not init vector store", "error", err)
		os.Exit(1)
	}

	// Repos
	documentRepo := repos.NewDocumentRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	auditRepo := repos.NewQuestionAnswerAuditRepo(thePG, log)
	exportJobRepo := repos.NewExportJobRepo(thePG, log)
	qaPairRepo := repos.NewProjectQAPairRepo(thePG, log)

	// Engines
	chunker := extractor.NewChunker()
	tracker := audit.NewTracker(log, auditRepo)
	questionExtractor := extraction.NewEngine(log, questionRepo, blobs, llmClient, jobQueue)
	documentProcessor := ingestion.NewDocumentProcessor(log, documentRepo, blobs, vectors, llmClient, chunker, questionExtractor, notifier)
	qaPairProcessor := ingestion.NewQAPairProcessor(log, qaPairRepo, vectors, llmClient, chunker, notifier)
	answeringEngine := answering.NewEngine(log, questionRepo, documentRepo, vectors, llmClient, tracker, notifier)
	exportWorker := export.NewWorker(log, exportJobRepo, questionRepo, documentRepo, blobs, notifier)

	dispatcher := &workers.Dispatcher{
		Documents: documentProcessor,
		QAPairs:   qaPairProcessor,
		Answers:   answeringEngine,
		Exports:   exportWorker,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return workers.NewConsumer(log, jobQueue, queue.QueueDocumentProcessing, dispatcher.HandleDocumentJob).Run(groupCtx)
	})
	group.Go(func() error {
		return workers.NewConsumer(log, jobQueue, queue.QueueQuestionProcessing, dispatcher.HandleQuestionJob).Run(groupCtx)
	})
	group.Go(func() error {
		return workers.NewConsumer(log, jobQueue, queue.QueueExportJobs, dispatcher.HandleExportJob).Run(groupCtx)
	})
	group.Go(func() error {
		return workers.NewConsumer(log, jobQueue, queue.QueueQAPairProcessing, dispatcher.HandleQAPairJob).Run(groupCtx)
	})
	group.Go(func() error {
		return workers.NewSweeper(log, documentRepo, questionRepo, qaPairRepo, exportJobRepo, notifier).Run(groupCtx)
	})

	log.Info("Worker started")
	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Worker stopped")
}
