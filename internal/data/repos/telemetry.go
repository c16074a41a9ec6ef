package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type TransactionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.StoreTransaction) ([]*domain.StoreTransaction, error)
	ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.StoreTransaction, error)
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	return &transactionRepo{db: db, log: baseLog.With("repo", "TransactionRepo")}
}

func (r *transactionRepo) Create(dbc dbctx.Context, rows []*domain.StoreTransaction) ([]*domain.StoreTransaction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.StoreTransaction{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transactionRepo) ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.StoreTransaction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.StoreTransaction
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Preload("Items").
		Where("store_id = ? AND occurred_at >= ?", storeID, since).
		Order("occurred_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type TransitionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.ZoneTransition) ([]*domain.ZoneTransition, error)
	ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.ZoneTransition, error)
}

type transitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransitionRepo(db *gorm.DB, baseLog *logger.Logger) TransitionRepo {
	return &transitionRepo{db: db, log: baseLog.With("repo", "TransitionRepo")}
}

func (r *transitionRepo) Create(dbc dbctx.Context, rows []*domain.ZoneTransition) ([]*domain.ZoneTransition, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.ZoneTransition{}, nil
	}
	// Self-transitions carry no flow information.
	clean := make([]*domain.ZoneTransition, 0, len(rows))
	for _, row := range rows {
		if row.FromZoneID == row.ToZoneID {
			continue
		}
		clean = append(clean, row)
	}
	if len(clean) == 0 {
		return []*domain.ZoneTransition{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&clean).Error; err != nil {
		return nil, err
	}
	return clean, nil
}

func (r *transitionRepo) ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.ZoneTransition, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ZoneTransition
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("store_id = ? AND recorded_at >= ?", storeID, since).
		Order("recorded_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type VisitRepo interface {
	Create(dbc dbctx.Context, rows []*domain.VisitRecord) ([]*domain.VisitRecord, error)
	ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.VisitRecord, error)
}

type visitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVisitRepo(db *gorm.DB, baseLog *logger.Logger) VisitRepo {
	return &visitRepo{db: db, log: baseLog.With("repo", "VisitRepo")}
}

func (r *visitRepo) Create(dbc dbctx.Context, rows []*domain.VisitRecord) ([]*domain.VisitRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.VisitRecord{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *visitRepo) ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.VisitRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.VisitRecord
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("store_id = ? AND entered_at >= ?", storeID, since).
		Order("entered_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type EnvironmentRepo interface {
	Create(dbc dbctx.Context, rows []*domain.EnvironmentSnapshot) ([]*domain.EnvironmentSnapshot, error)
	Latest(dbc dbctx.Context, storeID uuid.UUID) (*domain.EnvironmentSnapshot, error)
}

type environmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnvironmentRepo(db *gorm.DB, baseLog *logger.Logger) EnvironmentRepo {
	return &environmentRepo{db: db, log: baseLog.With("repo", "EnvironmentRepo")}
}

func (r *environmentRepo) Create(dbc dbctx.Context, rows []*domain.EnvironmentSnapshot) ([]*domain.EnvironmentSnapshot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.EnvironmentSnapshot{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *environmentRepo) Latest(dbc dbctx.Context, storeID uuid.UUID) (*domain.EnvironmentSnapshot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if storeID == uuid.Nil {
		return nil, nil
	}
	var row domain.EnvironmentSnapshot
	err := t.WithContext(dbc.Ctx).
		Where("store_id = ?", storeID).
		Order("recorded_at DESC").
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

type StaffRepo interface {
	Create(dbc dbctx.Context, rows []*domain.StaffMember) ([]*domain.StaffMember, error)
	ListAvailable(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.StaffMember, error)
}

type staffRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStaffRepo(db *gorm.DB, baseLog *logger.Logger) StaffRepo {
	return &staffRepo{db: db, log: baseLog.With("repo", "StaffRepo")}
}

func (r *staffRepo) Create(dbc dbctx.Context, rows []*domain.StaffMember) ([]*domain.StaffMember, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.StaffMember{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *staffRepo) ListAvailable(dbc dbctx.Context, storeID uuid.UUID) ([]*domain.StaffMember, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.StaffMember
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("store_id = ? AND available = ?", storeID, true).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
