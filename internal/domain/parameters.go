package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ModelParameterVersion is one immutable snapshot of the per-store prediction
// tunables. Versions are append-only; the learning loop writes a new row and
// in-flight predictions keep reading the snapshot they started with.
type ModelParameterVersion struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index:idx_param_store_version,unique,priority:1" json:"store_id"`
	Version int       `gorm:"column:version;not null;index:idx_param_store_version,unique,priority:2" json:"version"`

	// Multiplicative bias corrections, keyed by change type and metric.
	RevenueBiasFurniture    float64 `gorm:"column:revenue_bias_furniture;not null;default:1" json:"revenue_bias_furniture"`
	RevenueBiasProduct      float64 `gorm:"column:revenue_bias_product;not null;default:1" json:"revenue_bias_product"`
	ConversionBiasFurniture float64 `gorm:"column:conversion_bias_furniture;not null;default:1" json:"conversion_bias_furniture"`
	ConversionBiasProduct   float64 `gorm:"column:conversion_bias_product;not null;default:1" json:"conversion_bias_product"`

	// Elasticities weighting the traffic and environment terms.
	TrafficElasticity     float64 `gorm:"column:traffic_elasticity;not null;default:0.35" json:"traffic_elasticity"`
	EnvironmentElasticity float64 `gorm:"column:environment_elasticity;not null;default:1" json:"environment_elasticity"`

	// AdjustmentLog describes what the learning session changed and why.
	AdjustmentLog datatypes.JSON `gorm:"column:adjustment_log;type:jsonb" json:"adjustment_log,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (ModelParameterVersion) TableName() string { return "model_parameter_version" }

// DefaultParameters is the version-zero snapshot used before any learning
// session has run for a store.
func DefaultParameters(storeID uuid.UUID) *ModelParameterVersion {
	return &ModelParameterVersion{
		StoreID:                 storeID,
		Version:                 0,
		RevenueBiasFurniture:    1.0,
		RevenueBiasProduct:      1.0,
		ConversionBiasFurniture: 1.0,
		ConversionBiasProduct:   1.0,
		TrafficElasticity:       0.35,
		EnvironmentElasticity:   1.0,
	}
}

// Bias returns the correction for a change type and metric; unknown
// combinations are neutral.
func (p *ModelParameterVersion) Bias(changeType, metric string) float64 {
	if p == nil {
		return 1.0
	}
	switch metric {
	case "revenue":
		if changeType == ChangeTypeProduct {
			return p.RevenueBiasProduct
		}
		return p.RevenueBiasFurniture
	case "conversion":
		if changeType == ChangeTypeProduct {
			return p.ConversionBiasProduct
		}
		return p.ConversionBiasFurniture
	default:
		return 1.0
	}
}
