package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.Document, error)
	ListByProject(ctx context.Context, tx *gorm.DB, tenantID, projectID uuid.UUID) ([]*types.Document, error)
	ListByDeal(ctx context.Context, tx *gorm.DB, tenantID, dealID uuid.UUID) ([]*types.Document, error)
	// ClaimProcessing atomically moves the document into processing when
	// its stored processing_version still matches the job's. Returns
	// false when another job already claimed it or a newer reprocess
	// superseded this one.
	ClaimProcessing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, version int) (bool, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, version, chunkCount int) (bool, error)
	MarkError(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, version int, message string) (bool, error)
	// BumpVersion increments processing_version and resets the document
	// to uploaded for a reprocess. Returns the new version.
	BumpVersion(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (int, error)
	ListStaleProcessing(ctx context.Context, tx *gorm.DB, olderThan time.Time) ([]*types.Document, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	repoLog := baseLog.With("repo", "DocumentRepo")
	return &documentRepo{db: db, log: repoLog}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var doc types.Document
	if err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListByProject(ctx context.Context, tx *gorm.DB, tenantID, projectID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Document
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) ListByDeal(ctx context.Context, tx *gorm.DB, tenantID, dealID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Document
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND deal_id = ?", tenantID, dealID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) ClaimProcessing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, version int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ? AND tenant_id = ? AND processing_version = ? AND status <> ?",
			id, tenantID, version, types.DocumentStatusProcessing).
		Updates(map[string]any{
			"status":                types.DocumentStatusProcessing,
			"processing_started_at": now,
			"updated_at":            now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *documentRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, version, chunkCount int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	// Success clears processing_error so a recovered document does not
	// keep showing its last failure.
	res := transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ? AND tenant_id = ? AND processing_version = ? AND status = ?",
			id, tenantID, version, types.DocumentStatusProcessing).
		Updates(map[string]any{
			"status":           types.DocumentStatusProcessed,
			"chunk_count":      chunkCount,
			"processing_error": "",
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *documentRepo) MarkError(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, version int, message string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ? AND tenant_id = ? AND processing_version = ? AND status = ?",
			id, tenantID, version, types.DocumentStatusProcessing).
		Updates(map[string]any{
			"status":           types.DocumentStatusError,
			"processing_error": message,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *documentRepo) BumpVersion(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]any{
			"processing_version": gorm.Expr("processing_version + 1"),
			"status":             types.DocumentStatusUploaded,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	doc, err := r.GetByID(ctx, transaction, tenantID, id)
	if err != nil {
		return 0, err
	}
	return doc.ProcessingVersion, nil
}

func (r *documentRepo) ListStaleProcessing(ctx context.Context, tx *gorm.DB, olderThan time.Time) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Document
	if err := transaction.WithContext(ctx).
		Where("status = ? AND processing_started_at IS NOT NULL AND processing_started_at < ?",
			types.DocumentStatusProcessing, olderThan).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
