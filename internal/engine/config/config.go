package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/storelytic/storetwin-backend/internal/platform/envutil"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

// Config centralizes every heuristic threshold the engine components read.
// Defaults are compiled in; ENGINE_TUNING_PATH points at a YAML file that
// overrides them per deployment.
type Config struct {
	Flow         FlowConfig         `yaml:"flow"`
	Association  AssociationConfig  `yaml:"association"`
	VMD          VMDConfig          `yaml:"vmd"`
	Prediction   PredictionConfig   `yaml:"prediction"`
	Learning     LearningConfig     `yaml:"learning"`
	Environment  EnvironmentConfig  `yaml:"environment"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

type FlowConfig struct {
	WindowDays           int     `yaml:"window_days"`
	TopPaths             int     `yaml:"top_paths"`
	MaxPathLength        int     `yaml:"max_path_length"`
	CongestionRatio      float64 `yaml:"congestion_ratio"` // incoming/hour over capacity before a zone congests
	HighCongestionRatio  float64 `yaml:"high_congestion_ratio"`
	DeadZoneShare        float64 `yaml:"dead_zone_share"` // fraction of store-average visits below which a zone is dead
	SevereDeadShare      float64 `yaml:"severe_dead_share"`
	DefaultDwellCapacity int     `yaml:"default_dwell_capacity"` // stands in for zones with no configured capacity
}

type AssociationConfig struct {
	WindowDays          int     `yaml:"window_days"`
	MinTransactions     int     `yaml:"min_transactions"`
	MinSupport          float64 `yaml:"min_support"`
	MinConfidence       float64 `yaml:"min_confidence"`
	MaxItemsetSize      int     `yaml:"max_itemset_size"`
	BundleLift          float64 `yaml:"bundle_lift"`
	BundleConfidence    float64 `yaml:"bundle_confidence"`
	CrossSellLift       float64 `yaml:"cross_sell_lift"`
	CrossSellConfidence float64 `yaml:"cross_sell_confidence"`
	UpsellPriceRatio    float64 `yaml:"upsell_price_ratio"`
	ImpulsePriceMax     float64 `yaml:"impulse_price_max"`
	CacheTTLMinutes     int     `yaml:"cache_ttl_minutes"`
}

type VMDConfig struct {
	GoldenZoneWeight    float64 `yaml:"golden_zone_weight"`
	ColorBlockingWeight float64 `yaml:"color_blocking_weight"`
	VisualFlowWeight    float64 `yaml:"visual_flow_weight"`
	FocalPointWeight    float64 `yaml:"focal_point_weight"`
	BreathingRoomWeight float64 `yaml:"breathing_room_weight"`
	CrossMerchWeight    float64 `yaml:"cross_merch_weight"`
	PassScore           float64 `yaml:"pass_score"`
	MaxSlotOccupancy    float64 `yaml:"max_slot_occupancy"`
}

type PredictionConfig struct {
	HighImpact            float64            `yaml:"high_impact"` // fractional lift at or above which a change is high priority
	MediumImpact          float64            `yaml:"medium_impact"`
	MinHighConfidence     float64            `yaml:"min_high_confidence"` // below this, priority is capped at medium
	FullConfidenceSamples int                `yaml:"full_confidence_samples"`
	RecencyHalfLifeDays   float64            `yaml:"recency_half_life_days"`
	ConversionBenchmarks  map[string]float64 `yaml:"conversion_benchmarks"`
}

type LearningConfig struct {
	LookbackDays   int     `yaml:"lookback_days"`
	MinSamples     int     `yaml:"min_samples"`
	ErrorTolerance float64 `yaml:"error_tolerance"`
	MaxStepPerRun  float64 `yaml:"max_step_per_run"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type EnvironmentConfig struct {
	MinFactor float64 `yaml:"min_factor"`
	MaxFactor float64 `yaml:"max_factor"`
}

type OrchestratorConfig struct {
	ReasoningTimeoutSeconds int `yaml:"reasoning_timeout_seconds"`
	MaxChangesDefault       int `yaml:"max_changes_default"`
	HistoryExamples         int `yaml:"history_examples"`
}

func Default() Config {
	return Config{
		Flow: FlowConfig{
			WindowDays:           30,
			TopPaths:             5,
			MaxPathLength:        6,
			CongestionRatio:      1.0,
			HighCongestionRatio:  2.0,
			DeadZoneShare:        0.4,
			SevereDeadShare:      0.15,
			DefaultDwellCapacity: 50,
		},
		Association: AssociationConfig{
			WindowDays:          90,
			MinTransactions:     20,
			MinSupport:          0.02,
			MinConfidence:       0.3,
			MaxItemsetSize:      2,
			BundleLift:          3.0,
			BundleConfidence:    0.5,
			CrossSellLift:       2.0,
			CrossSellConfidence: 0.4,
			UpsellPriceRatio:    1.5,
			ImpulsePriceMax:     10.0,
			CacheTTLMinutes:     60,
		},
		VMD: VMDConfig{
			GoldenZoneWeight:    0.25,
			ColorBlockingWeight: 0.10,
			VisualFlowWeight:    0.20,
			FocalPointWeight:    0.15,
			BreathingRoomWeight: 0.15,
			CrossMerchWeight:    0.15,
			PassScore:           60,
			MaxSlotOccupancy:    0.85,
		},
		Prediction: PredictionConfig{
			HighImpact:            0.15,
			MediumImpact:          0.05,
			MinHighConfidence:     0.4,
			FullConfidenceSamples: 30,
			RecencyHalfLifeDays:   14,
			ConversionBenchmarks: map[string]float64{
				"general":     0.20,
				"grocery":     0.35,
				"apparel":     0.12,
				"electronics": 0.08,
			},
		},
		Learning: LearningConfig{
			LookbackDays:   30,
			MinSamples:     5,
			ErrorTolerance: 0.05,
			MaxStepPerRun:  0.10,
			TimeoutSeconds: 10,
		},
		Environment: EnvironmentConfig{
			MinFactor: 0.5,
			MaxFactor: 1.5,
		},
		Orchestrator: OrchestratorConfig{
			ReasoningTimeoutSeconds: 45,
			MaxChangesDefault:       10,
			HistoryExamples:         3,
		},
	}
}

// Load returns the compiled defaults overlaid with the YAML file named by
// ENGINE_TUNING_PATH, when set. A missing or malformed file falls back to
// defaults with a warning.
func Load(log *logger.Logger) Config {
	cfg := Default()
	path := envutil.String("ENGINE_TUNING_PATH", "")
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if log != nil {
			log.Warn("engine tuning file unreadable, using defaults", "path", path, "error", err)
		}
		return cfg
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		if log != nil {
			log.Warn("engine tuning file invalid, using defaults", "path", path, "error", err)
		}
		return Default()
	}
	if err := cfg.validate(); err != nil {
		if log != nil {
			log.Warn("engine tuning rejected, using defaults", "path", path, "error", err)
		}
		return Default()
	}
	return cfg
}

func (c *Config) validate() error {
	w := c.VMD.GoldenZoneWeight + c.VMD.ColorBlockingWeight + c.VMD.VisualFlowWeight +
		c.VMD.FocalPointWeight + c.VMD.BreathingRoomWeight + c.VMD.CrossMerchWeight
	if w <= 0 {
		return fmt.Errorf("vmd weights must be positive")
	}
	if c.Association.MinSupport <= 0 || c.Association.MinSupport >= 1 {
		return fmt.Errorf("association min_support out of range")
	}
	if c.Association.MinConfidence <= 0 || c.Association.MinConfidence >= 1 {
		return fmt.Errorf("association min_confidence out of range")
	}
	if c.Learning.MaxStepPerRun <= 0 {
		return fmt.Errorf("learning max_step_per_run must be positive")
	}
	if c.Flow.DefaultDwellCapacity <= 0 {
		return fmt.Errorf("flow default_dwell_capacity must be positive")
	}
	return nil
}
