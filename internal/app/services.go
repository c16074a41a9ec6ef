package app

import (
	"os"
	"strings"

	"github.com/storelytic/storetwin-backend/internal/clients/redis"
	"github.com/storelytic/storetwin-backend/internal/data"
	"github.com/storelytic/storetwin-backend/internal/engine/assoc"
	engineconfig "github.com/storelytic/storetwin-backend/internal/engine/config"
	"github.com/storelytic/storetwin-backend/internal/engine/learning"
	"github.com/storelytic/storetwin-backend/internal/engine/optimizer"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
	"github.com/storelytic/storetwin-backend/internal/platform/openai"
	"github.com/storelytic/storetwin-backend/internal/services"
)

type Services struct {
	EngineConfig   engineconfig.Config
	Optimizer      *optimizer.Service
	Learner        *learning.Runner
	Recommendation services.RecommendationService
	Parameter      services.ParameterService

	ruleCache *redis.RuleCache
}

func wireServices(log *logger.Logger, reposet Repos) Services {
	log.Info("Wiring services...")
	engineCfg := engineconfig.Load(log)

	store := &data.EngineStore{
		Stores:          reposet.Store,
		Zones:           reposet.Zone,
		Furniture:       reposet.Furniture,
		Products:        reposet.Product,
		Slots:           reposet.ShelfSlot,
		Transactions:    reposet.Transaction,
		Transitions:     reposet.Transition,
		Visits:          reposet.Visit,
		Environment:     reposet.Environment,
		Staff:           reposet.Staff,
		Parameters:      reposet.Parameter,
		Runs:            reposet.Run,
		Recommendations: reposet.Recommendation,
		Outcomes:        reposet.Outcome,
	}

	// The rule cache and the reasoning client are both optional. Without
	// Redis rules are mined on every run; without an API key every run
	// takes the rule-fallback path.
	var ruleCache *redis.RuleCache
	var cache assoc.Cache
	if rc, err := redis.NewRuleCache(log); err != nil {
		log.Warn("rule cache disabled, mining rules on every run", "error", err)
	} else {
		ruleCache = rc
		cache = rc
	}
	miner := assoc.NewCachedMiner(cache, engineCfg.Association, log)

	var reasoner optimizer.Reasoner
	if strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		client, err := openai.NewClient(log)
		if err != nil {
			log.Warn("reasoning client disabled", "error", err)
		} else {
			reasoner = client
		}
	} else {
		log.Warn("OPENAI_API_KEY not set, running rules-only")
	}

	learner := learning.NewRunner(store, engineCfg.Learning, log)
	opt := optimizer.NewService(store, store, reasoner, miner, learner, engineCfg, log)

	return Services{
		EngineConfig:   engineCfg,
		Optimizer:      opt,
		Learner:        learner,
		Recommendation: services.NewRecommendationService(reposet.Recommendation, reposet.Outcome, log),
		Parameter:      services.NewParameterService(reposet.Parameter, log),
		ruleCache:      ruleCache,
	}
}

func (s *Services) Close() {
	if s.ruleCache != nil {
		_ = s.ruleCache.Close()
	}
}
