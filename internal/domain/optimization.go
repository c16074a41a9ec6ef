package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ChangeTypeFurniture = "furniture"
	ChangeTypeProduct   = "product"
	ChangeTypeStaff     = "staff"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	RecommendationPending  = "pending"
	RecommendationAccepted = "accepted"
	RecommendationRejected = "rejected"
	RecommendationApplied  = "applied"
)

// Recommendation is a persisted OptimizationChange. It is created pending by
// an optimization run and transitioned by an external actor afterwards.
type Recommendation struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	RunID   uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`

	ChangeType string    `gorm:"column:change_type;not null;index" json:"change_type"` // furniture | product | staff
	SubjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`

	Current   datatypes.JSON `gorm:"column:current;type:jsonb" json:"current,omitempty"`
	Suggested datatypes.JSON `gorm:"column:suggested;type:jsonb" json:"suggested,omitempty"`

	Reason               string  `gorm:"column:reason;type:text" json:"reason"`
	Priority             string  `gorm:"column:priority;not null;default:'low';index" json:"priority"`
	Metric               string  `gorm:"column:metric;not null;default:'revenue'" json:"metric"` // revenue | conversion
	ExpectedImpact       float64 `gorm:"column:expected_impact;not null;default:0" json:"expected_impact"`
	PredictionConfidence float64 `gorm:"column:prediction_confidence;not null;default:0" json:"prediction_confidence"`

	Status string `gorm:"column:status;not null;default:'pending';index" json:"status"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Recommendation) TableName() string { return "recommendation" }

// ValidStatusTransition reports whether a recommendation may move from one
// status to another. Applied and rejected are terminal.
func ValidStatusTransition(from, to string) bool {
	switch from {
	case RecommendationPending:
		return to == RecommendationAccepted || to == RecommendationRejected
	case RecommendationAccepted:
		return to == RecommendationApplied || to == RecommendationRejected
	default:
		return false
	}
}

// OptimizationRun is the audit record of one orchestrator invocation.
type OptimizationRun struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	OptimizationType string `gorm:"column:optimization_type;not null" json:"optimization_type"` // furniture | product | both | staffing
	Source           string `gorm:"column:source;not null;default:'rules'" json:"source"`       // ai | rules
	Status           string `gorm:"column:status;not null;index" json:"status"`                 // done | failed

	Summary datatypes.JSON `gorm:"column:summary;type:jsonb" json:"summary,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (OptimizationRun) TableName() string { return "optimization_run" }

// OutcomeRecord stores the realized effect of an applied recommendation, the
// training signal for the learning loop.
type OutcomeRecord struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID          uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	RecommendationID uuid.UUID `gorm:"type:uuid;not null;index" json:"recommendation_id"`

	ChangeType      string  `gorm:"column:change_type;not null;index" json:"change_type"`
	Metric          string  `gorm:"column:metric;not null" json:"metric"`
	PredictedImpact float64 `gorm:"column:predicted_impact;not null;default:0" json:"predicted_impact"`
	ActualImpact    float64 `gorm:"column:actual_impact;not null;default:0" json:"actual_impact"`

	ObservedAt time.Time `gorm:"column:observed_at;not null;index" json:"observed_at"`
}

func (OutcomeRecord) TableName() string { return "outcome_record" }
