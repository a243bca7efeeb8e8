package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rfpflow/rfpflow-backend/internal/audit"
	"github.com/rfpflow/rfpflow-backend/internal/db"
	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// Creates an initial audit snapshot for answered questions that predate
// audit tracking, so every current answer has a matching latest record.
func main() {
	var dryRun bool
	var limit int
	flag.BoolVar(&dryRun, "dry-run", false, "print planned records without writing")
	flag.IntVar(&limit, "limit", 0, "limit number of questions backfilled")
	flag.Parse()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	auditRepo := repos.NewQuestionAnswerAuditRepo(thePG, log)
	tracker := audit.NewTracker(log, auditRepo)

	ctx := context.Background()
	ids, err := auditRepo.QuestionIDsWithoutAudit(ctx, nil, limit)
	if err != nil {
		log.Error("Could not list questions without audit", "error", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		fmt.Println("nothing to backfill")
		return
	}

	var questions []*types.Question
	if err := thePG.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		log.Error("Could not load questions", "error", err)
		os.Exit(1)
	}

	written := 0
	for _, q := range questions {
		if q.AnswerText == "" {
			continue
		}
		if dryRun {
			fmt.Printf("would backfill question=%s status=%s relevance=%.1f\n", q.ID, q.AnswerStatus, q.AnswerRelevanceScore)
			continue
		}
		if _, err := tracker.Record(ctx, nil, q, "", types.ChangeSourceAIInitial, "system"); err != nil {
			log.Error("Backfill failed", "question_id", q.ID, "error", err)
			continue
		}
		written++
	}
	fmt.Printf("backfilled %d of %d questions\n", written, len(questions))
}
