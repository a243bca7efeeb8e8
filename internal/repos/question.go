package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type QuestionRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.Question, error)
	ListByDocument(ctx context.Context, tx *gorm.DB, tenantID, documentID uuid.UUID) ([]*types.Question, error)
	ListByDeal(ctx context.Context, tx *gorm.DB, tenantID, dealID uuid.UUID) ([]*types.Question, error)
	ClaimProcessing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error)
	// SaveAnswer writes the answer fields and flips the question to
	// processed, clearing any prior processing_error.
	SaveAnswer(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, fields AnswerFields) (bool, error)
	// UpdateAnswerText is the user-edit path: only text, status and
	// relevance change; provenance arrays stay as the engine wrote them.
	UpdateAnswerText(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, answerText string, status types.AnswerStatus, relevance float64) error
	MarkError(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, message string) (bool, error)
	// DeleteByDocument removes a document's questions ahead of
	// re-extraction so the new set fully replaces the old.
	DeleteByDocument(ctx context.Context, tx *gorm.DB, tenantID, documentID uuid.UUID) error
	CountByDeal(ctx context.Context, tx *gorm.DB, tenantID, dealID uuid.UUID) (total int64, answered int64, err error)
	ListStaleProcessing(ctx context.Context, tx *gorm.DB, olderThan time.Time) ([]*types.Question, error)
}

// AnswerFields is everything the answering engine persists in one shot.
// AnswerSources and AnswerSourceFilenames must be index-aligned JSON
// arrays of equal length.
type AnswerFields struct {
	AnswerText            string
	Reasoning             string
	AnswerStatus          types.AnswerStatus
	AnswerRelevanceScore  float64
	AnswerSources         []byte
	AnswerSourceFilenames []byte
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	for _, q := range questions {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
	}
	const batchSize = 100
	if err := transaction.WithContext(ctx).CreateInBatches(questions, batchSize).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var q types.Question
	if err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepo) ListByDocument(ctx context.Context, tx *gorm.DB, tenantID, documentID uuid.UUID) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		Order("question_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) ListByDeal(ctx context.Context, tx *gorm.DB, tenantID, dealID uuid.UUID) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND deal_id = ?", tenantID, dealID).
		Order("question_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) ClaimProcessing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where("id = ? AND tenant_id = ? AND processing_status <> ?",
			id, tenantID, types.QuestionStatusProcessing).
		Updates(map[string]any{
			"processing_status":     types.QuestionStatusProcessing,
			"processing_started_at": now,
			"updated_at":            now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *questionRepo) SaveAnswer(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, fields AnswerFields) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where("id = ? AND tenant_id = ? AND processing_status = ?",
			id, tenantID, types.QuestionStatusProcessing).
		Updates(map[string]any{
			"answer_text":             fields.AnswerText,
			"reasoning":               fields.Reasoning,
			"answer_status":           fields.AnswerStatus,
			"answer_relevance_score":  fields.AnswerRelevanceScore,
			"answer_sources":          fields.AnswerSources,
			"answer_source_filenames": fields.AnswerSourceFilenames,
			"processing_status":       types.QuestionStatusProcessed,
			"processing_error":        "",
			"updated_at":              time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *questionRepo) UpdateAnswerText(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, answerText string, status types.AnswerStatus, relevance float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]any{
			"answer_text":            answerText,
			"answer_status":          status,
			"answer_relevance_score": relevance,
			"updated_at":             time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *questionRepo) MarkError(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, message string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where("id = ? AND tenant_id = ? AND processing_status = ?",
			id, tenantID, types.QuestionStatusProcessing).
		Updates(map[string]any{
			"processing_status": types.QuestionStatusError,
			"processing_error":  message,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *questionRepo) DeleteByDocument(ctx context.Context, tx *gorm.DB, tenantID, documentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		Delete(&types.Question{}).Error
}

func (r *questionRepo) CountByDeal(ctx context.Context, tx *gorm.DB, tenantID, dealID uuid.UUID) (int64, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where("tenant_id = ? AND deal_id = ?", tenantID, dealID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	var answered int64
	if err := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where("tenant_id = ? AND deal_id = ? AND answer_status <> ? AND answer_text <> ''",
			tenantID, dealID, types.AnswerStatusNotAnswered).
		Count(&answered).Error; err != nil {
		return 0, 0, err
	}
	return total, answered, nil
}

func (r *questionRepo) ListStaleProcessing(ctx context.Context, tx *gorm.DB, olderThan time.Time) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if err := transaction.WithContext(ctx).
		Where("processing_status = ? AND processing_started_at IS NOT NULL AND processing_started_at < ?",
			types.QuestionStatusProcessing, olderThan).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
