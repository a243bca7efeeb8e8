package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/apierr"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type ExportService struct {
	log      *logger.Logger
	exports  repos.ExportJobRepo
	docs     repos.DocumentRepo
	jobs     queue.Queue
	notifier *realtime.Notifier
}

func NewExportService(
	log *logger.Logger,
	exports repos.ExportJobRepo,
	docs repos.DocumentRepo,
	jobs queue.Queue,
	notifier *realtime.Notifier,
) *ExportService {
	return &ExportService{
		log:      log.With("service", "ExportService"),
		exports:  exports,
		docs:     docs,
		jobs:     jobs,
		notifier: notifier,
	}
}

// Trigger creates a pending export job for a deal document and hands
// it to the export queue.
func (s *ExportService) Trigger(ctx context.Context, tenantID, documentID uuid.UUID) (*types.ExportJob, error) {
	doc, err := s.docs.GetByID(ctx, nil, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.DealID == nil {
		return nil, apierr.New(http.StatusBadRequest, "validation", fmt.Errorf("document %s is not a deal document", documentID))
	}

	job, err := s.exports.Create(ctx, nil, &types.ExportJob{
		TenantID:   tenantID,
		DealID:     *doc.DealID,
		DocumentID: documentID,
		Status:     types.ExportJobStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}

	jobID := job.ID
	if err := s.jobs.Enqueue(ctx, queue.QueueExportJobs, queue.Job{
		JobType:     queue.JobTypeExportDeal,
		TenantID:    tenantID,
		ExportJobID: &jobID,
		DealID:      doc.DealID,
		DocumentID:  &documentID,
	}); err != nil {
		return nil, fmt.Errorf("enqueue export %s: %w", jobID, err)
	}

	s.notifier.ExportStatus(ctx, tenantID, jobID, string(types.ExportJobStatusPending))
	return job, nil
}

func (s *ExportService) Get(ctx context.Context, tenantID, exportJobID uuid.UUID) (*types.ExportJob, error) {
	return s.exports.GetByID(ctx, nil, tenantID, exportJobID)
}
