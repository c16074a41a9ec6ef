package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type ProductRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Product) ([]*domain.Product, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Product, error)
	ListByStore(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.Product, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(dbc dbctx.Context, rows []*domain.Product) ([]*domain.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Product{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Product
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) ListByStore(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Product
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("store_id = ?", storeID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
