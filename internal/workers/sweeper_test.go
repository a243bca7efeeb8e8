package workers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/db"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type silentBus struct{}

func (silentBus) Publish(context.Context, realtime.Event) error { return nil }

func TestSweepFlipsStaleEntities(t *testing.T) {
	gdb, err := db.NewSQLiteMemory()
	if err != nil {
		t.Fatalf("NewSQLiteMemory: %v", err)
	}
	log := logger.NewNop()
	docs := repos.NewDocumentRepo(gdb, log)
	questions := repos.NewQuestionRepo(gdb, log)
	pairs := repos.NewProjectQAPairRepo(gdb, log)
	exports := repos.NewExportJobRepo(gdb, log)
	sweeper := NewSweeper(log, docs, questions, pairs, exports, realtime.NewNotifier(log, silentBus{}))

	ctx := context.Background()
	tenantID := uuid.New()
	longAgo := time.Now().UTC().Add(-time.Hour)
	justNow := time.Now().UTC()

	stale, err := docs.Create(ctx, nil, &types.Document{
		TenantID:            tenantID,
		ProjectID:           uuid.New(),
		DocumentType:        types.DocumentTypeKnowledge,
		Filename:            "stuck.txt",
		StoragePath:         "originals/stuck.txt",
		Status:              types.DocumentStatusProcessing,
		ProcessingStartedAt: &longAgo,
	})
	if err != nil {
		t.Fatalf("Create stale doc: %v", err)
	}
	fresh, err := docs.Create(ctx, nil, &types.Document{
		TenantID:            tenantID,
		ProjectID:           uuid.New(),
		DocumentType:        types.DocumentTypeKnowledge,
		Filename:            "active.txt",
		StoragePath:         "originals/active.txt",
		Status:              types.DocumentStatusProcessing,
		ProcessingStartedAt: &justNow,
	})
	if err != nil {
		t.Fatalf("Create fresh doc: %v", err)
	}

	created, err := questions.CreateBatch(ctx, nil, []*types.Question{{
		TenantID:            tenantID,
		DealID:              uuid.New(),
		DocumentID:          stale.ID,
		QuestionText:        "stuck question",
		ProcessingStatus:    types.QuestionStatusProcessing,
		ProcessingStartedAt: &longAgo,
		AnswerStatus:        types.AnswerStatusNotAnswered,
	}})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	pair, err := pairs.Create(ctx, nil, &types.ProjectQAPair{
		TenantID:            tenantID,
		ProjectID:           uuid.New(),
		Question:            "stuck pair question",
		Answer:              "stuck pair answer",
		ProcessingStatus:    types.QuestionStatusProcessing,
		ProcessingStartedAt: &longAgo,
	})
	if err != nil {
		t.Fatalf("Create qa pair: %v", err)
	}

	job, err := exports.Create(ctx, nil, &types.ExportJob{
		TenantID:   tenantID,
		DealID:     uuid.New(),
		DocumentID: stale.ID,
		Status:     types.ExportJobStatusProcessing,
		StartedAt:  &longAgo,
	})
	if err != nil {
		t.Fatalf("Create export job: %v", err)
	}

	if flipped := sweeper.Sweep(ctx); flipped != 4 {
		t.Fatalf("flipped: want=4 got=%d", flipped)
	}

	gotDoc, err := docs.GetByID(ctx, nil, tenantID, stale.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotDoc.Status != types.DocumentStatusError || gotDoc.ProcessingError != staleMessage {
		t.Fatalf("stale doc: status=%q error=%q", gotDoc.Status, gotDoc.ProcessingError)
	}

	gotFresh, err := docs.GetByID(ctx, nil, tenantID, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotFresh.Status != types.DocumentStatusProcessing {
		t.Fatalf("fresh doc must stay processing, got %q", gotFresh.Status)
	}

	gotQ, err := questions.GetByID(ctx, nil, tenantID, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotQ.ProcessingStatus != types.QuestionStatusError {
		t.Fatalf("stale question: status=%q", gotQ.ProcessingStatus)
	}

	gotPair, err := pairs.GetByID(ctx, nil, tenantID, pair.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotPair.ProcessingStatus != types.QuestionStatusError || gotPair.ProcessingError != staleMessage {
		t.Fatalf("stale qa pair: status=%q error=%q", gotPair.ProcessingStatus, gotPair.ProcessingError)
	}

	gotJob, err := exports.GetByID(ctx, nil, tenantID, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotJob.Status != types.ExportJobStatusFailed || gotJob.ErrorMessage != staleMessage {
		t.Fatalf("stale export: status=%q message=%q", gotJob.Status, gotJob.ErrorMessage)
	}

	// second pass is a no-op
	if flipped := sweeper.Sweep(ctx); flipped != 0 {
		t.Fatalf("second sweep: want=0 got=%d", flipped)
	}
}
