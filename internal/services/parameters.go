package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/data/repos"
	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/pkg/dbctx"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

// ParameterService reads the model parameter history. A store with no
// recorded versions gets the defaults so every caller sees usable values.
type ParameterService interface {
	Current(ctx context.Context, storeID uuid.UUID) (*domain.ModelParameterVersion, error)
	History(ctx context.Context, storeID uuid.UUID, limit int) ([]*domain.ModelParameterVersion, error)
}

type parameterService struct {
	params repos.ParameterRepo
	log    *logger.Logger
}

func NewParameterService(params repos.ParameterRepo, log *logger.Logger) ParameterService {
	return &parameterService{params: params, log: log.With("service", "ParameterService")}
}

func (s *parameterService) Current(ctx context.Context, storeID uuid.UUID) (*domain.ModelParameterVersion, error) {
	row, err := s.params.Latest(dbctx.Context{Ctx: ctx}, storeID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return domain.DefaultParameters(storeID), nil
	}
	return row, nil
}

func (s *parameterService) History(ctx context.Context, storeID uuid.UUID, limit int) ([]*domain.ModelParameterVersion, error) {
	return s.params.History(dbctx.Context{Ctx: ctx}, storeID, limit)
}
