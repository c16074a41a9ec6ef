package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type StoreRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Store) ([]*domain.Store, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Store, error)
}

type storeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoreRepo(db *gorm.DB, baseLog *logger.Logger) StoreRepo {
	return &storeRepo{db: db, log: baseLog.With("repo", "StoreRepo")}
}

func (r *storeRepo) Create(dbc dbctx.Context, rows []*domain.Store) ([]*domain.Store, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Store{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *storeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Store, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Store
	err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

type ZoneRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Zone) ([]*domain.Zone, error)
	ListByStore(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.Zone, error)
}

type zoneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewZoneRepo(db *gorm.DB, baseLog *logger.Logger) ZoneRepo {
	return &zoneRepo{db: db, log: baseLog.With("repo", "ZoneRepo")}
}

func (r *zoneRepo) Create(dbc dbctx.Context, rows []*domain.Zone) ([]*domain.Zone, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Zone{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *zoneRepo) ListByStore(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.Zone, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Zone
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
