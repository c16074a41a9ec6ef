package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/data/repos"
	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/apierr"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type OutcomeInput struct {
	RecommendationID uuid.UUID `json:"recommendation_id"`
	ActualImpact     float64   `json:"actual_impact"`
	ObservedAt       time.Time `json:"observed_at,omitempty"`
}

// RecommendationService owns the lifecycle of persisted recommendations:
// listing, status transitions and outcome capture.
type RecommendationService interface {
	List(ctx context.Context, storeID uuid.UUID, statuses []string, limit int) ([]*domain.Recommendation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Recommendation, error)
	RecordOutcome(ctx context.Context, in OutcomeInput) (*domain.OutcomeRecord, error)
}

type recommendationService struct {
	recs     repos.RecommendationRepo
	outcomes repos.OutcomeRepo
	log      *logger.Logger
}

func NewRecommendationService(recs repos.RecommendationRepo, outcomes repos.OutcomeRepo, log *logger.Logger) RecommendationService {
	return &recommendationService{
		recs:     recs,
		outcomes: outcomes,
		log:      log.With("service", "RecommendationService"),
	}
}

func (s *recommendationService) List(ctx context.Context, storeID uuid.UUID, statuses []string, limit int) ([]*domain.Recommendation, error) {
	for _, st := range statuses {
		switch st {
		case domain.RecommendationPending, domain.RecommendationAccepted,
			domain.RecommendationRejected, domain.RecommendationApplied:
		default:
			return nil, apierr.New(http.StatusBadRequest, "invalid_status", fmt.Errorf("unknown status %q", st))
		}
	}
	return s.recs.ListByStore(dbctx.Context{Ctx: ctx}, storeID, statuses, limit)
}

func (s *recommendationService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Recommendation, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := s.recs.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierr.New(http.StatusNotFound, "recommendation_not_found", fmt.Errorf("recommendation %s not found", id))
	}
	if !domain.ValidStatusTransition(rec.Status, status) {
		return nil, apierr.New(http.StatusConflict, "invalid_transition",
			fmt.Errorf("cannot transition recommendation from %s to %s", rec.Status, status))
	}
	if err := s.recs.UpdateStatus(dbc, id, status); err != nil {
		return nil, err
	}
	rec.Status = status
	s.log.Info("recommendation status updated", "recommendation_id", id, "status", status)
	return rec, nil
}

// RecordOutcome snapshots the prediction at capture time so later parameter
// versions cannot rewrite the training signal.
func (s *recommendationService) RecordOutcome(ctx context.Context, in OutcomeInput) (*domain.OutcomeRecord, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := s.recs.GetByID(dbc, in.RecommendationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierr.New(http.StatusNotFound, "recommendation_not_found", fmt.Errorf("recommendation %s not found", in.RecommendationID))
	}
	if rec.Status != domain.RecommendationApplied {
		return nil, apierr.New(http.StatusConflict, "recommendation_not_applied",
			fmt.Errorf("outcomes are only recorded for applied recommendations, status is %s", rec.Status))
	}

	observedAt := in.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}
	row := &domain.OutcomeRecord{
		StoreID:          rec.StoreID,
		RecommendationID: rec.ID,
		ChangeType:       rec.ChangeType,
		Metric:           rec.Metric,
		PredictedImpact:  rec.ExpectedImpact,
		ActualImpact:     in.ActualImpact,
		ObservedAt:       observedAt,
	}
	if _, err := s.outcomes.Create(dbc, []*domain.OutcomeRecord{row}); err != nil {
		return nil, err
	}
	return row, nil
}
