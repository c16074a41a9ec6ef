package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

// ParameterRepo is append-only: versions are created, never updated or
// deleted, so every recalibration stays auditable.
type ParameterRepo interface {
	Create(dbc dbctx.Context, row *domain.ModelParameterVersion) (*domain.ModelParameterVersion, error)
	Latest(dbc dbctx.Context, storeID uuid.UUID) (*domain.ModelParameterVersion, error)
	History(dbc dbctx.Context, storeID uuid.UUID, limit int) ([]*domain.ModelParameterVersion, error)
}

type parameterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParameterRepo(db *gorm.DB, baseLog *logger.Logger) ParameterRepo {
	return &parameterRepo{db: db, log: baseLog.With("repo", "ParameterRepo")}
}

func (r *parameterRepo) Create(dbc dbctx.Context, row *domain.ModelParameterVersion) (*domain.ModelParameterVersion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *parameterRepo) Latest(dbc dbctx.Context, storeID uuid.UUID) (*domain.ModelParameterVersion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if storeID == uuid.Nil {
		return nil, nil
	}
	var row domain.ModelParameterVersion
	err := t.WithContext(dbc.Ctx).
		Where("store_id = ?", storeID).
		Order("version DESC").
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

func (r *parameterRepo) History(dbc dbctx.Context, storeID uuid.UUID, limit int) ([]*domain.ModelParameterVersion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ModelParameterVersion
	if storeID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("store_id = ?", storeID).
		Order("version DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
