package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/apierr"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type fakeRecRepo struct {
	rows    map[uuid.UUID]*domain.Recommendation
	updated map[uuid.UUID]string
	listed  []string
}

func newFakeRecRepo(rows ...*domain.Recommendation) *fakeRecRepo {
	m := map[uuid.UUID]*domain.Recommendation{}
	for _, r := range rows {
		m[r.ID] = r
	}
	return &fakeRecRepo{rows: m, updated: map[uuid.UUID]string{}}
}

func (f *fakeRecRepo) Create(dbc dbctx.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error) {
	return rows, nil
}

func (f *fakeRecRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Recommendation, error) {
	return f.rows[id], nil
}

func (f *fakeRecRepo) ListByStore(dbc dbctx.Context, storeID uuid.UUID, statuses []string, limit int) ([]*domain.Recommendation, error) {
	f.listed = statuses
	var out []*domain.Recommendation
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRecRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	f.updated[id] = status
	return nil
}

type fakeOutcomeRepo struct {
	created []*domain.OutcomeRecord
}

func (f *fakeOutcomeRepo) Create(dbc dbctx.Context, rows []*domain.OutcomeRecord) ([]*domain.OutcomeRecord, error) {
	f.created = append(f.created, rows...)
	return rows, nil
}

func (f *fakeOutcomeRepo) ListSince(dbc dbctx.Context, storeID uuid.UUID, since time.Time) ([]*domain.OutcomeRecord, error) {
	return f.created, nil
}

func testRecService(t *testing.T, recs *fakeRecRepo, outcomes *fakeOutcomeRepo) RecommendationService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewRecommendationService(recs, outcomes, log)
}

func apiStatus(t *testing.T, err error) (int, string) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected an api error, got %v", err)
	}
	return ae.Status, ae.Code
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	svc := testRecService(t, newFakeRecRepo(), &fakeOutcomeRepo{})
	_, err := svc.List(context.Background(), uuid.New(), []string{"pending", "archived"}, 0)
	if status, code := apiStatus(t, err); status != http.StatusBadRequest || code != "invalid_status" {
		t.Fatalf("unexpected error: %d %s", status, code)
	}
}

func TestUpdateStatus_ValidTransition(t *testing.T) {
	rec := &domain.Recommendation{ID: uuid.New(), Status: domain.RecommendationPending}
	recs := newFakeRecRepo(rec)
	svc := testRecService(t, recs, &fakeOutcomeRepo{})

	got, err := svc.UpdateStatus(context.Background(), rec.ID, domain.RecommendationAccepted)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != domain.RecommendationAccepted {
		t.Fatalf("expected accepted, got %q", got.Status)
	}
	if recs.updated[rec.ID] != domain.RecommendationAccepted {
		t.Fatalf("expected the repo write, got %+v", recs.updated)
	}
}

func TestUpdateStatus_InvalidTransitionConflicts(t *testing.T) {
	rec := &domain.Recommendation{ID: uuid.New(), Status: domain.RecommendationRejected}
	svc := testRecService(t, newFakeRecRepo(rec), &fakeOutcomeRepo{})

	_, err := svc.UpdateStatus(context.Background(), rec.ID, domain.RecommendationApplied)
	if status, code := apiStatus(t, err); status != http.StatusConflict || code != "invalid_transition" {
		t.Fatalf("unexpected error: %d %s", status, code)
	}
}

func TestUpdateStatus_MissingRecommendation(t *testing.T) {
	svc := testRecService(t, newFakeRecRepo(), &fakeOutcomeRepo{})
	_, err := svc.UpdateStatus(context.Background(), uuid.New(), domain.RecommendationAccepted)
	if status, code := apiStatus(t, err); status != http.StatusNotFound || code != "recommendation_not_found" {
		t.Fatalf("unexpected error: %d %s", status, code)
	}
}

func TestRecordOutcome_RequiresAppliedStatus(t *testing.T) {
	rec := &domain.Recommendation{ID: uuid.New(), Status: domain.RecommendationPending}
	svc := testRecService(t, newFakeRecRepo(rec), &fakeOutcomeRepo{})

	_, err := svc.RecordOutcome(context.Background(), OutcomeInput{RecommendationID: rec.ID, ActualImpact: 0.1})
	if status, code := apiStatus(t, err); status != http.StatusConflict || code != "recommendation_not_applied" {
		t.Fatalf("unexpected error: %d %s", status, code)
	}
}

func TestRecordOutcome_SnapshotsPrediction(t *testing.T) {
	rec := &domain.Recommendation{
		ID:             uuid.New(),
		StoreID:        uuid.New(),
		ChangeType:     domain.ChangeTypeProduct,
		Metric:         "revenue",
		ExpectedImpact: 0.25,
		Status:         domain.RecommendationApplied,
	}
	outcomes := &fakeOutcomeRepo{}
	svc := testRecService(t, newFakeRecRepo(rec), outcomes)

	row, err := svc.RecordOutcome(context.Background(), OutcomeInput{RecommendationID: rec.ID, ActualImpact: 0.4})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if row.PredictedImpact != 0.25 || row.ActualImpact != 0.4 {
		t.Fatalf("expected the prediction snapshotted, got %+v", row)
	}
	if row.ChangeType != domain.ChangeTypeProduct || row.Metric != "revenue" || row.StoreID != rec.StoreID {
		t.Fatalf("expected the recommendation context copied, got %+v", row)
	}
	if row.ObservedAt.IsZero() {
		t.Fatalf("expected a default observation time")
	}
	if len(outcomes.created) != 1 {
		t.Fatalf("expected one persisted outcome, got %d", len(outcomes.created))
	}
}
