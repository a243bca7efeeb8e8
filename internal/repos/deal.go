package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type DealRepo interface {
	Create(ctx context.Context, tx *gorm.DB, deal *types.Deal) (*types.Deal, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.Deal, error)
}

type dealRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDealRepo(db *gorm.DB, baseLog *logger.Logger) DealRepo {
	repoLog := baseLog.With("repo", "DealRepo")
	return &dealRepo{db: db, log: repoLog}
}

func (r *dealRepo) Create(ctx context.Context, tx *gorm.DB, deal *types.Deal) (*types.Deal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(deal).Error; err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *dealRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.Deal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var deal types.Deal
	if err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&deal).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}
