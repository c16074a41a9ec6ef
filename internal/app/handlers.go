package app

import (
	httpH "github.com/storelytic/storetwin-backend/internal/http/handlers"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type Handlers struct {
	Health         *httpH.HealthHandler
	Optimization   *httpH.OptimizationHandler
	Recommendation *httpH.RecommendationHandler
	Parameter      *httpH.ParameterHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(),
		Optimization:   httpH.NewOptimizationHandler(serviceset.Optimizer, serviceset.Learner),
		Recommendation: httpH.NewRecommendationHandler(serviceset.Recommendation),
		Parameter:      httpH.NewParameterHandler(serviceset.Parameter),
	}
}
