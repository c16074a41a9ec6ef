package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type FurnitureRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Furniture) ([]*domain.Furniture, error)
	ListByStore(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.Furniture, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type furnitureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFurnitureRepo(db *gorm.DB, baseLog *logger.Logger) FurnitureRepo {
	return &furnitureRepo{db: db, log: baseLog.With("repo", "FurnitureRepo")}
}

func (r *furnitureRepo) Create(dbc dbctx.Context, rows []*domain.Furniture) ([]*domain.Furniture, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Furniture{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *furnitureRepo) ListByStore(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.Furniture, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Furniture
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *furnitureRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&domain.Furniture{}).
		Where("id = ?", id).
		Updates(updates).Error
}

type ShelfSlotRepo interface {
	Create(dbc dbctx.Context, rows []*domain.ShelfSlot) ([]*domain.ShelfSlot, error)
	ListByStore(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.ShelfSlot, error)
	AssignProduct(dbc dbctx.Context, slotID uuid.UUID, productID *uuid.UUID) error
}

type shelfSlotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShelfSlotRepo(db *gorm.DB, baseLog *logger.Logger) ShelfSlotRepo {
	return &shelfSlotRepo{db: db, log: baseLog.With("repo", "ShelfSlotRepo")}
}

func (r *shelfSlotRepo) Create(dbc dbctx.Context, rows []*domain.ShelfSlot) ([]*domain.ShelfSlot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.ShelfSlot{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *shelfSlotRepo) ListByStore(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.ShelfSlot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ShelfSlot
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("store_id = ?", storeID).
		Order("furniture_id ASC, slot_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shelfSlotRepo) AssignProduct(dbc dbctx.Context, slotID uuid.UUID, productID *uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if slotID == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&domain.ShelfSlot{}).
		Where("id = ?", slotID).
		Update("product_id", productID).Error
}
