package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// QuestionAnswerAuditRepo is append-only on purpose: no update or
// delete methods exist, so history cannot be rewritten through this
// layer.
type QuestionAnswerAuditRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.QuestionAnswerAudit) (*types.QuestionAnswerAudit, error)
	ListByQuestion(ctx context.Context, tx *gorm.DB, tenantID, questionID uuid.UUID) ([]*types.QuestionAnswerAudit, error)
	LatestByQuestion(ctx context.Context, tx *gorm.DB, tenantID, questionID uuid.UUID) (*types.QuestionAnswerAudit, error)
	// QuestionIDsWithoutAudit finds answered questions that predate
	// auditing, for the backfill command.
	QuestionIDsWithoutAudit(ctx context.Context, tx *gorm.DB, limit int) ([]uuid.UUID, error)
}

type questionAnswerAuditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionAnswerAuditRepo(db *gorm.DB, baseLog *logger.Logger) QuestionAnswerAuditRepo {
	repoLog := baseLog.With("repo", "QuestionAnswerAuditRepo")
	return &questionAnswerAuditRepo{db: db, log: repoLog}
}

func (r *questionAnswerAuditRepo) Create(ctx context.Context, tx *gorm.DB, record *types.QuestionAnswerAudit) (*types.QuestionAnswerAudit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *questionAnswerAuditRepo) ListByQuestion(ctx context.Context, tx *gorm.DB, tenantID, questionID uuid.UUID) ([]*types.QuestionAnswerAudit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.QuestionAnswerAudit
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND question_id = ?", tenantID, questionID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionAnswerAuditRepo) LatestByQuestion(ctx context.Context, tx *gorm.DB, tenantID, questionID uuid.UUID) (*types.QuestionAnswerAudit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var record types.QuestionAnswerAudit
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND question_id = ?", tenantID, questionID).
		Order("created_at DESC, id DESC").
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *questionAnswerAuditRepo) QuestionIDsWithoutAudit(ctx context.Context, tx *gorm.DB, limit int) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 500
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Select("question.id").
		Joins("LEFT JOIN question_answer_audit ON question_answer_audit.question_id = question.id").
		Where("question.answer_text <> '' AND question_answer_audit.id IS NULL").
		Limit(limit).
		Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
