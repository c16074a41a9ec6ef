package predict

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func neutralInput() Input {
	return Input{
		ChangeType:       domain.ChangeTypeProduct,
		Baseline:         100,
		DestTrafficShare: 1.0,
		EnvFactor:        1.0,
		SampleSize:       30,
	}
}

func TestRevenue_NeutralInputsPredictBaseline(t *testing.T) {
	params := domain.DefaultParameters(uuid.New())
	p := Revenue(neutralInput(), params, config.Default().Prediction)

	if !approx(p.Predicted, 100) {
		t.Fatalf("expected baseline predicted, got %v", p.Predicted)
	}
	if !approx(p.Impact, 0) {
		t.Fatalf("expected zero impact, got %v", p.Impact)
	}
	if p.Priority != domain.PriorityLow {
		t.Fatalf("expected low priority for a no-op, got %q", p.Priority)
	}
}

func TestRevenue_TrafficElasticityDampensShare(t *testing.T) {
	params := domain.DefaultParameters(uuid.New())
	in := neutralInput()
	in.DestTrafficShare = 2.0

	p := Revenue(in, params, config.Default().Prediction)
	// Doubled traffic moves revenue by the elasticity, not 2x.
	if !approx(p.Impact, 0.35) {
		t.Fatalf("expected 35%% lift at default elasticity, got %v", p.Impact)
	}
	if p.Priority != domain.PriorityHigh {
		t.Fatalf("expected high priority with full confidence, got %q", p.Priority)
	}
}

func TestRevenue_LowConfidenceNeverHighPriority(t *testing.T) {
	params := domain.DefaultParameters(uuid.New())
	in := neutralInput()
	in.DestTrafficShare = 2.0
	in.SampleSize = 2

	p := Revenue(in, params, config.Default().Prediction)
	if p.Confidence >= config.Default().Prediction.MinHighConfidence {
		t.Fatalf("test setup: confidence should be below the high threshold, got %v", p.Confidence)
	}
	if p.Priority == domain.PriorityHigh {
		t.Fatalf("large impact at low confidence must not be high priority")
	}
	if p.Priority != domain.PriorityMedium {
		t.Fatalf("expected medium priority, got %q", p.Priority)
	}
}

func TestConfidence_DecaysWithDataAge(t *testing.T) {
	params := domain.DefaultParameters(uuid.New())
	cfg := config.Default().Prediction

	fresh := Revenue(neutralInput(), params, cfg)
	stale := neutralInput()
	stale.DataAgeDays = 28
	old := Revenue(stale, params, cfg)

	if old.Confidence >= fresh.Confidence {
		t.Fatalf("expected confidence decay: fresh=%v stale=%v", fresh.Confidence, old.Confidence)
	}
	// Two half-lives quarter the recency term.
	if !approx(old.Confidence, 0.25) {
		t.Fatalf("expected 0.25 after two half-lives, got %v", old.Confidence)
	}
}

func TestConfidence_FloorAndZeroBaselinePenalty(t *testing.T) {
	params := domain.DefaultParameters(uuid.New())
	in := neutralInput()
	in.Baseline = 0
	in.SampleSize = 0

	p := Revenue(in, params, config.Default().Prediction)
	if !approx(p.Confidence, 0.05) {
		t.Fatalf("expected the confidence floor, got %v", p.Confidence)
	}
	if !approx(p.Impact, 0) {
		t.Fatalf("expected zero impact on a zero baseline, got %v", p.Impact)
	}
}

func TestModel_BiasMultiplies(t *testing.T) {
	params := domain.DefaultParameters(uuid.New())
	params.RevenueBiasProduct = 1.2

	p := Revenue(neutralInput(), params, config.Default().Prediction)
	if !approx(p.Predicted, 120) {
		t.Fatalf("expected bias-corrected 120, got %v", p.Predicted)
	}
}

func TestConversion_BenchmarksAgainstCategory(t *testing.T) {
	params := domain.DefaultParameters(uuid.New())
	cfg := config.Default().Prediction

	in := neutralInput()
	in.Category = "apparel"
	in.Baseline = 0.20
	if got := Conversion(in, params, cfg); got.Benchmark != "above" {
		t.Fatalf("expected above the apparel benchmark, got %q", got.Benchmark)
	}

	in.Baseline = 0.05
	if got := Conversion(in, params, cfg); got.Benchmark != "below" {
		t.Fatalf("expected below the apparel benchmark, got %q", got.Benchmark)
	}

	in.Category = "unknown-category"
	in.Baseline = 0.20
	if got := Conversion(in, params, cfg); got.Benchmark != "at" {
		t.Fatalf("expected the general benchmark fallback, got %q", got.Benchmark)
	}
}
