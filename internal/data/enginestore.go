package data

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/data/repos"
	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
)

// EngineStore adapts the repos to the read, write and learning contracts the
// engine packages declare. The engine never sees GORM.
type EngineStore struct {
	Stores          repos.StoreRepo
	Zones           repos.ZoneRepo
	Furniture       repos.FurnitureRepo
	Products        repos.ProductRepo
	Slots           repos.ShelfSlotRepo
	Transactions    repos.TransactionRepo
	Transitions     repos.TransitionRepo
	Visits          repos.VisitRepo
	Environment     repos.EnvironmentRepo
	Staff           repos.StaffRepo
	Parameters      repos.ParameterRepo
	Runs            repos.RunRepo
	Recommendations repos.RecommendationRepo
	Outcomes        repos.OutcomeRepo
}

func dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}

func (s *EngineStore) GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	return s.Stores.GetByID(dbc(ctx), id)
}

func (s *EngineStore) ListZones(ctx context.Context, storeID uuid.UUID) ([]*domain.Zone, error) {
	return s.Zones.ListByStore(dbc(ctx), storeID)
}

func (s *EngineStore) ListFurniture(ctx context.Context, storeID uuid.UUID) ([]*domain.Furniture, error) {
	return s.Furniture.ListByStore(dbc(ctx), storeID)
}

func (s *EngineStore) ListProducts(ctx context.Context, storeID uuid.UUID) ([]*domain.Product, error) {
	return s.Products.ListByStore(dbc(ctx), storeID)
}

func (s *EngineStore) ListSlots(ctx context.Context, storeID uuid.UUID) ([]*domain.ShelfSlot, error) {
	return s.Slots.ListByStore(dbc(ctx), storeID)
}

func (s *EngineStore) ListTransactions(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.StoreTransaction, error) {
	return s.Transactions.ListSince(dbc(ctx), storeID, since)
}

func (s *EngineStore) ListTransitions(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.ZoneTransition, error) {
	return s.Transitions.ListSince(dbc(ctx), storeID, since)
}

func (s *EngineStore) ListVisits(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.VisitRecord, error) {
	return s.Visits.ListSince(dbc(ctx), storeID, since)
}

func (s *EngineStore) LatestEnvironment(ctx context.Context, storeID uuid.UUID) (*domain.EnvironmentSnapshot, error) {
	return s.Environment.Latest(dbc(ctx), storeID)
}

func (s *EngineStore) ListStaff(ctx context.Context, storeID uuid.UUID) ([]*domain.StaffMember, error) {
	return s.Staff.ListAvailable(dbc(ctx), storeID)
}

func (s *EngineStore) LatestParameters(ctx context.Context, storeID uuid.UUID) (*domain.ModelParameterVersion, error) {
	return s.Parameters.Latest(dbc(ctx), storeID)
}

func (s *EngineStore) ListRecentRuns(ctx context.Context, storeID uuid.UUID, limit int) ([]*domain.OptimizationRun, error) {
	return s.Runs.ListRecent(dbc(ctx), storeID, limit)
}

func (s *EngineStore) CreateRun(ctx context.Context, run *domain.OptimizationRun) error {
	_, err := s.Runs.Create(dbc(ctx), []*domain.OptimizationRun{run})
	return err
}

func (s *EngineStore) CreateRecommendations(ctx context.Context, recs []*domain.Recommendation) error {
	_, err := s.Recommendations.Create(dbc(ctx), recs)
	return err
}

func (s *EngineStore) ListOutcomes(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.OutcomeRecord, error) {
	return s.Outcomes.ListSince(dbc(ctx), storeID, since)
}

func (s *EngineStore) CreateParameterVersion(ctx context.Context, v *domain.ModelParameterVersion) error {
	_, err := s.Parameters.Create(dbc(ctx), v)
	return err
}
