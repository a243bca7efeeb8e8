package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type ExportJobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, job *types.ExportJob) (*types.ExportJob, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.ExportJob, error)
	ClaimProcessing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, answered, total int) error
	MarkCompleted(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, answered, total int, outputRef, outputFilename string) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, message string) (bool, error)
	ListStaleProcessing(ctx context.Context, tx *gorm.DB, olderThan time.Time) ([]*types.ExportJob, error)
}

type exportJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExportJobRepo(db *gorm.DB, baseLog *logger.Logger) ExportJobRepo {
	repoLog := baseLog.With("repo", "ExportJobRepo")
	return &exportJobRepo{db: db, log: repoLog}
}

func (r *exportJobRepo) Create(ctx context.Context, tx *gorm.DB, job *types.ExportJob) (*types.ExportJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *exportJobRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.ExportJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.ExportJob
	if err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *exportJobRepo) ClaimProcessing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.ExportJob{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, types.ExportJobStatusPending).
		Updates(map[string]any{
			"status":     types.ExportJobStatusProcessing,
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *exportJobRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, answered, total int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ExportJob{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, types.ExportJobStatusProcessing).
		Updates(map[string]any{
			"answered_count":  answered,
			"questions_count": total,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *exportJobRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, answered, total int, outputRef, outputFilename string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.ExportJob{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, types.ExportJobStatusProcessing).
		Updates(map[string]any{
			"status":           types.ExportJobStatusCompleted,
			"answered_count":   answered,
			"questions_count":  total,
			"output_reference": outputRef,
			"output_filename":  outputFilename,
			"error_message":    "",
			"completed_at":     now,
			"updated_at":       now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *exportJobRepo) MarkFailed(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, message string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ExportJob{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, types.ExportJobStatusProcessing).
		Updates(map[string]any{
			"status":        types.ExportJobStatusFailed,
			"error_message": message,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *exportJobRepo) ListStaleProcessing(ctx context.Context, tx *gorm.DB, olderThan time.Time) ([]*types.ExportJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ExportJob
	if err := transaction.WithContext(ctx).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?",
			types.ExportJobStatusProcessing, olderThan).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
