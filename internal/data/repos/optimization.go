package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type RecommendationRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Recommendation, error)
	ListByStore(dbc dbctx.Context, storeID uuid.UUID, statuses []string, limit int) ([]*domain.Recommendation, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) Create(dbc dbctx.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Recommendation{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *recommendationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Recommendation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Recommendation
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

func (r *recommendationRepo) ListByStore(dbc dbctx.Context, storeID uuid.UUID, statuses []string, limit int) ([]*domain.Recommendation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Recommendation
	if storeID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).Where("store_id = ?", storeID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recommendationRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&domain.Recommendation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

type RunRepo interface {
	Create(dbc dbctx.Context, rows []*domain.OptimizationRun) ([]*domain.OptimizationRun, error)
	ListRecent(dbc dbctx.Context, storeID uuid.UUID, limit int) ([]*domain.OptimizationRun, error)
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{db: db, log: baseLog.With("repo", "RunRepo")}
}

func (r *runRepo) Create(dbc dbctx.Context, rows []*domain.OptimizationRun) ([]*domain.OptimizationRun, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.OptimizationRun{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *runRepo) ListRecent(dbc dbctx.Context, storeID uuid.UUID, limit int) ([]*domain.OptimizationRun, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.OptimizationRun
	if storeID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 5
	}
	if err := t.WithContext(dbc.Ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type OutcomeRepo interface {
	Create(dbc dbctx.Context, rows []*domain.OutcomeRecord) ([]*domain.OutcomeRecord, error)
	ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.OutcomeRecord, error)
}

type outcomeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) OutcomeRepo {
	return &outcomeRepo{db: db, log: baseLog.With("repo", "OutcomeRepo")}
}

func (r *outcomeRepo) Create(dbc dbctx.Context, rows []*domain.OutcomeRecord) ([]*domain.OutcomeRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.OutcomeRecord{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *outcomeRepo) ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.OutcomeRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.OutcomeRecord
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("store_id = ? AND observed_at >= ?", storeID, since).
		Order("observed_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
