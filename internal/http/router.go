package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/storelytic/storetwin-backend/internal/http/handlers"
	httpMW "github.com/storelytic/storetwin-backend/internal/http/middleware"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler         *httpH.HealthHandler
	OptimizationHandler   *httpH.OptimizationHandler
	RecommendationHandler *httpH.RecommendationHandler
	ParameterHandler      *httpH.ParameterHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api/v1")
	{
		if cfg.OptimizationHandler != nil {
			api.POST("/stores/:storeID/optimize", cfg.OptimizationHandler.Optimize)
			api.POST("/stores/:storeID/learning/run", cfg.OptimizationHandler.RunLearning)
		}
		if cfg.RecommendationHandler != nil {
			api.GET("/stores/:storeID/recommendations", cfg.RecommendationHandler.List)
			api.POST("/stores/:storeID/outcomes", cfg.RecommendationHandler.RecordOutcome)
			api.POST("/recommendations/:id/status", cfg.RecommendationHandler.UpdateStatus)
		}
		if cfg.ParameterHandler != nil {
			api.GET("/stores/:storeID/parameters", cfg.ParameterHandler.Current)
			api.GET("/stores/:storeID/parameters/history", cfg.ParameterHandler.History)
		}
	}

	return r
}
