package predict

import (
	"math"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
)

// Input carries everything a single prediction needs. Given identical inputs
// and parameters the output is bit-for-bit reproducible.
type Input struct {
	ChangeType string // furniture | product | staff
	Baseline   float64
	// DestTrafficShare is the destination zone's traffic relative to the
	// store average, 1.0 meaning average.
	DestTrafficShare float64
	EnvFactor        float64
	SampleSize       int
	DataAgeDays      float64
	Category         string
}

type Prediction struct {
	Predicted  float64 `json:"predicted"`
	Impact     float64 `json:"impact"` // fractional change against the baseline
	Confidence float64 `json:"confidence"`
	Priority   string  `json:"priority"`
	Benchmark  string  `json:"benchmark,omitempty"` // above | at | below (conversion only)
}

// Revenue predicts the post-change revenue for a candidate.
func Revenue(in Input, params *domain.ModelParameterVersion, cfg config.PredictionConfig) Prediction {
	return model(in, "revenue", params, cfg)
}

// Conversion predicts the post-change conversion rate and adds a category
// benchmark comparison.
func Conversion(in Input, params *domain.ModelParameterVersion, cfg config.PredictionConfig) Prediction {
	p := model(in, "conversion", params, cfg)
	p.Benchmark = benchmark(p.Predicted, in.Category, cfg)
	return p
}

func model(in Input, metric string, params *domain.ModelParameterVersion, cfg config.PredictionConfig) Prediction {
	elasticity := 0.35
	envElasticity := 1.0
	if params != nil {
		elasticity = params.TrafficElasticity
		envElasticity = params.EnvironmentElasticity
	}

	trafficTerm := 1 + elasticity*(in.DestTrafficShare-1)
	if trafficTerm < 0 {
		trafficTerm = 0
	}
	envTerm := 1 + envElasticity*(in.EnvFactor-1)
	if envTerm < 0 {
		envTerm = 0
	}
	bias := params.Bias(in.ChangeType, metric)

	predicted := in.Baseline * trafficTerm * envTerm * bias
	impact := 0.0
	if in.Baseline > 0 {
		impact = predicted/in.Baseline - 1
	}

	conf := confidence(in, cfg)
	return Prediction{
		Predicted:  predicted,
		Impact:     impact,
		Confidence: conf,
		Priority:   priority(impact, conf, cfg),
	}
}

// confidence grows with sample size and decays with data age.
func confidence(in Input, cfg config.PredictionConfig) float64 {
	full := cfg.FullConfidenceSamples
	if full <= 0 {
		full = 30
	}
	sample := float64(in.SampleSize) / float64(full)
	if sample > 1 {
		sample = 1
	}
	half := cfg.RecencyHalfLifeDays
	if half <= 0 {
		half = 14
	}
	recency := math.Pow(0.5, in.DataAgeDays/half)
	c := sample * recency
	if in.Baseline <= 0 {
		c *= 0.5
	}
	if c < 0.05 {
		c = 0.05
	}
	if c > 0.99 {
		c = 0.99
	}
	return c
}

// priority thresholds expected impact against confidence. A high-uncertainty
// change is never promoted to high priority regardless of magnitude.
func priority(impact, conf float64, cfg config.PredictionConfig) string {
	mag := math.Abs(impact)
	switch {
	case mag >= cfg.HighImpact && conf >= cfg.MinHighConfidence:
		return domain.PriorityHigh
	case mag >= cfg.MediumImpact:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func benchmark(predicted float64, category string, cfg config.PredictionConfig) string {
	bench, ok := cfg.ConversionBenchmarks[category]
	if !ok {
		bench = cfg.ConversionBenchmarks["general"]
	}
	if bench <= 0 {
		return "at"
	}
	switch {
	case predicted > bench*1.1:
		return "above"
	case predicted < bench*0.9:
		return "below"
	default:
		return "at"
	}
}
