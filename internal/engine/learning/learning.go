package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

// Store is the persistence contract for the learning loop. Parameter writes
// are append-only: a recalibration always produces a new version.
type Store interface {
	ListOutcomes(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.OutcomeRecord, error)
	LatestParameters(ctx context.Context, storeID uuid.UUID) (*domain.ModelParameterVersion, error)
	CreateParameterVersion(ctx context.Context, v *domain.ModelParameterVersion) error
}

type Adjustment struct {
	ChangeType string  `json:"change_type"`
	Metric     string  `json:"metric"`
	Samples    int     `json:"samples"`
	MeanError  float64 `json:"mean_error"`
	OldBias    float64 `json:"old_bias"`
	NewBias    float64 `json:"new_bias"`
}

type SessionSummary struct {
	StoreID            uuid.UUID    `json:"store_id"`
	AdjustmentsApplied int          `json:"adjustments_applied"`
	SamplesSeen        int          `json:"samples_seen"`
	NewVersion         int          `json:"new_version,omitempty"`
	Adjustments        []Adjustment `json:"improvement_metrics,omitempty"`
	Note               string       `json:"note,omitempty"`
}

type Runner struct {
	store Store
	cfg   config.LearningConfig
	log   *logger.Logger
}

func NewRunner(store Store, cfg config.LearningConfig, log *logger.Logger) *Runner {
	return &Runner{store: store, cfg: cfg, log: log.With("service", "LearningRunner")}
}

// Run recalibrates the store's model parameters from prediction-vs-actual
// deltas in the lookback window. Insufficient data is a no-op session, never
// an error.
func (r *Runner) Run(ctx context.Context, storeID uuid.UUID) (*SessionSummary, error) {
	summary := &SessionSummary{StoreID: storeID}

	since := time.Now().UTC().AddDate(0, 0, -r.cfg.LookbackDays)
	outcomes, err := r.store.ListOutcomes(ctx, storeID, since)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	summary.SamplesSeen = len(outcomes)
	if len(outcomes) == 0 {
		summary.Note = "no outcomes in window"
		return summary, nil
	}

	params, err := r.store.LatestParameters(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("load parameters: %w", err)
	}
	if params == nil {
		params = domain.DefaultParameters(storeID)
	}

	type group struct {
		sum float64
		n   int
	}
	groups := map[string]*group{}
	for _, o := range outcomes {
		key := o.ChangeType + "|" + o.Metric
		g := groups[key]
		if g == nil {
			g = &group{}
			groups[key] = g
		}
		g.sum += o.ActualImpact - o.PredictedImpact
		g.n++
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := cloneParams(params)
	for _, key := range keys {
		g := groups[key]
		if g.n < r.cfg.MinSamples {
			continue
		}
		meanErr := g.sum / float64(g.n)
		if meanErr < r.cfg.ErrorTolerance && meanErr > -r.cfg.ErrorTolerance {
			continue
		}
		changeType, metric := splitKey(key)
		old := params.Bias(changeType, metric)
		step := clamp(meanErr, -r.cfg.MaxStepPerRun, r.cfg.MaxStepPerRun)
		updated := clamp(old+step, 0.5, 2.0)
		setBias(next, changeType, metric, updated)
		summary.Adjustments = append(summary.Adjustments, Adjustment{
			ChangeType: changeType,
			Metric:     metric,
			Samples:    g.n,
			MeanError:  meanErr,
			OldBias:    old,
			NewBias:    updated,
		})
	}

	summary.AdjustmentsApplied = len(summary.Adjustments)
	if summary.AdjustmentsApplied == 0 {
		summary.Note = "within tolerance"
		return summary, nil
	}

	next.Version = params.Version + 1
	next.ID = uuid.Nil
	next.CreatedAt = time.Time{}
	if raw, err := json.Marshal(summary.Adjustments); err == nil {
		next.AdjustmentLog = datatypes.JSON(raw)
	}
	if err := r.store.CreateParameterVersion(ctx, next); err != nil {
		return nil, fmt.Errorf("persist parameter version: %w", err)
	}
	summary.NewVersion = next.Version
	r.log.Info("model parameters recalibrated",
		"store_id", storeID,
		"version", next.Version,
		"adjustments", summary.AdjustmentsApplied,
	)
	return summary, nil
}

func cloneParams(p *domain.ModelParameterVersion) *domain.ModelParameterVersion {
	cp := *p
	cp.AdjustmentLog = nil
	return &cp
}

func splitKey(key string) (string, string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

func setBias(p *domain.ModelParameterVersion, changeType, metric string, v float64) {
	switch metric {
	case "revenue":
		if changeType == domain.ChangeTypeProduct {
			p.RevenueBiasProduct = v
		} else {
			p.RevenueBiasFurniture = v
		}
	case "conversion":
		if changeType == domain.ChangeTypeProduct {
			p.ConversionBiasProduct = v
		} else {
			p.ConversionBiasFurniture = v
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
