package app

import (
	"github.com/gin-gonic/gin"

	internalhttp "github.com/storelytic/storetwin-backend/internal/http"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, handlerset Handlers) *gin.Engine {
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		Log:                   log,
		HealthHandler:         handlerset.Health,
		OptimizationHandler:   handlerset.Optimization,
		RecommendationHandler: handlerset.Recommendation,
		ParameterHandler:      handlerset.Parameter,
	})
}
