package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/apierr"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// QAPairService manages curated knowledge-base entries. Every create
// or edit schedules (re-)embedding on the qa_pair_processing queue.
type QAPairService struct {
	log   *logger.Logger
	pairs repos.ProjectQAPairRepo
	jobs  queue.Queue
}

func NewQAPairService(log *logger.Logger, pairs repos.ProjectQAPairRepo, jobs queue.Queue) *QAPairService {
	return &QAPairService{
		log:   log.With("service", "QAPairService"),
		pairs: pairs,
		jobs:  jobs,
	}
}

func validateQAPair(question, answer string) error {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return apierr.New(http.StatusBadRequest, "validation", fmt.Errorf("question and answer are required"))
	}
	return nil
}

func (s *QAPairService) Create(ctx context.Context, tenantID, projectID uuid.UUID, question, answer string) (*types.ProjectQAPair, error) {
	if err := validateQAPair(question, answer); err != nil {
		return nil, err
	}
	pair, err := s.pairs.Create(ctx, nil, &types.ProjectQAPair{
		TenantID:         tenantID,
		ProjectID:        projectID,
		Question:         strings.TrimSpace(question),
		Answer:           strings.TrimSpace(answer),
		ProcessingStatus: types.QuestionStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create qa pair: %w", err)
	}
	if err := s.enqueue(ctx, tenantID, pair.ID); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *QAPairService) Update(ctx context.Context, tenantID, pairID uuid.UUID, question, answer string) (*types.ProjectQAPair, error) {
	if err := validateQAPair(question, answer); err != nil {
		return nil, err
	}
	if err := s.pairs.UpdateContent(ctx, nil, tenantID, pairID, strings.TrimSpace(question), strings.TrimSpace(answer)); err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, tenantID, pairID); err != nil {
		return nil, err
	}
	return s.pairs.GetByID(ctx, nil, tenantID, pairID)
}

func (s *QAPairService) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]*types.ProjectQAPair, error) {
	return s.pairs.ListByProject(ctx, nil, tenantID, projectID)
}

func (s *QAPairService) enqueue(ctx context.Context, tenantID, pairID uuid.UUID) error {
	id := pairID
	if err := s.jobs.Enqueue(ctx, queue.QueueQAPairProcessing, queue.Job{
		JobType:  queue.JobTypeProcessQAPair,
		TenantID: tenantID,
		QAPairID: &id,
	}); err != nil {
		return fmt.Errorf("enqueue qa pair %s: %w", pairID, err)
	}
	return nil
}
