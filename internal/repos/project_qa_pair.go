package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type ProjectQAPairRepo interface {
	Create(ctx context.Context, tx *gorm.DB, pair *types.ProjectQAPair) (*types.ProjectQAPair, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.ProjectQAPair, error)
	ListByProject(ctx context.Context, tx *gorm.DB, tenantID, projectID uuid.UUID) ([]*types.ProjectQAPair, error)
	UpdateContent(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, question, answer string) error
	ClaimProcessing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error)
	MarkError(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, message string) (bool, error)
	ListStaleProcessing(ctx context.Context, tx *gorm.DB, olderThan time.Time) ([]*types.ProjectQAPair, error)
}

type projectQAPairRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectQAPairRepo(db *gorm.DB, baseLog *logger.Logger) ProjectQAPairRepo {
	repoLog := baseLog.With("repo", "ProjectQAPairRepo")
	return &projectQAPairRepo{db: db, log: repoLog}
}

func (r *projectQAPairRepo) Create(ctx context.Context, tx *gorm.DB, pair *types.ProjectQAPair) (*types.ProjectQAPair, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if pair.ID == uuid.Nil {
		pair.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(pair).Error; err != nil {
		return nil, err
	}
	return pair, nil
}

func (r *projectQAPairRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.ProjectQAPair, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var pair types.ProjectQAPair
	if err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&pair).Error; err != nil {
		return nil, err
	}
	return &pair, nil
}

func (r *projectQAPairRepo) ListByProject(ctx context.Context, tx *gorm.DB, tenantID, projectID uuid.UUID) ([]*types.ProjectQAPair, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProjectQAPair
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectQAPairRepo) UpdateContent(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, question, answer string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ProjectQAPair{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]any{
			"question":          question,
			"answer":            answer,
			"processing_status": types.QuestionStatusPending,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectQAPairRepo) ClaimProcessing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.ProjectQAPair{}).
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

func (r *projectQAPairRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ProjectQAPair{}).
		Where("id = ? AND tenant_id = ? AND processing_status = ?",
			id, tenantID, types.QuestionStatusProcessing).
		Updates(map[string]any{
			"processing_status": types.QuestionStatusProcessed,
			"processing_error":  "",
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *projectQAPairRepo) ListStaleProcessing(ctx context.Context, tx *gorm.DB, olderThan time.Time) ([]*types.ProjectQAPair, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProjectQAPair
	if err := transaction.WithContext(ctx).
		Where("processing_status = ? AND processing_started_at IS NOT NULL AND processing_started_at < ?",
			types.QuestionStatusProcessing, olderThan).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectQAPairRepo) MarkError(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, message string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ProjectQAPair{}).
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
