package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/answering"
	"github.com/rfpflow/rfpflow-backend/internal/audit"
	"github.com/rfpflow/rfpflow-backend/internal/platform/apierr"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// QuestionService is the user-facing side of questions: reads, manual
// answer edits with auditing, and history.
type QuestionService struct {
	log        *logger.Logger
	questions  repos.QuestionRepo
	audits     repos.QuestionAnswerAuditRepo
	tracker    *audit.Tracker
	notifier   *realtime.Notifier
	thresholds answering.Thresholds
}

func NewQuestionService(
	log *logger.Logger,
	questions repos.QuestionRepo,
	audits repos.QuestionAnswerAuditRepo,
	tracker *audit.Tracker,
	notifier *realtime.Notifier,
) *QuestionService {
	return &QuestionService{
		log:        log.With("service", "QuestionService"),
		questions:  questions,
		audits:     audits,
		tracker:    tracker,
		notifier:   notifier,
		thresholds: answering.ThresholdsFromEnv(),
	}
}

func (s *QuestionService) Get(ctx context.Context, tenantID, questionID uuid.UUID) (*types.Question, error) {
	return s.questions.GetByID(ctx, nil, tenantID, questionID)
}

func (s *QuestionService) ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]*types.Question, error) {
	return s.questions.ListByDeal(ctx, nil, tenantID, dealID)
}

func (s *QuestionService) History(ctx context.Context, tenantID, questionID uuid.UUID) ([]*types.QuestionAnswerAudit, error) {
	return s.audits.ListByQuestion(ctx, nil, tenantID, questionID)
}

// EditAnswer applies a manual answer. The status is re-evaluated from
// the stored relevance against the new text, the write is audited as
// user_edit (or user_create when no answer existed), and a
// notification goes out.
func (s *QuestionService) EditAnswer(ctx context.Context, tenantID, questionID uuid.UUID, newText, editor string) (*types.Question, error) {
	if strings.TrimSpace(editor) == "" {
		return nil, apierr.New(http.StatusBadRequest, "validation", fmt.Errorf("editor identity is required"))
	}

	question, err := s.questions.GetByID(ctx, nil, tenantID, questionID)
	if err != nil {
		return nil, err
	}

	previous := question.AnswerText
	source := types.ChangeSourceUserEdit
	if strings.TrimSpace(previous) == "" {
		source = types.ChangeSourceUserCreate
	}

	status := answering.Classify(newText, question.AnswerRelevanceScore, s.thresholds)
	if err := s.questions.UpdateAnswerText(ctx, nil, tenantID, questionID, newText, status, question.AnswerRelevanceScore); err != nil {
		return nil, fmt.Errorf("update answer: %w", err)
	}

	question.AnswerText = newText
	question.AnswerStatus = status
	if _, err := s.tracker.Record(ctx, nil, question, previous, source, editor); err != nil {
		return nil, err
	}

	s.notifier.QuestionStatus(ctx, tenantID, questionID, string(status))
	s.log.Info("answer edited", "question_id", questionID, "change_source", source)
	return question, nil
}
