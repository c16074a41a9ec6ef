package optimizer

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/assoc"
	"github.com/storelytic/storetwin-backend/internal/engine/environment"
	"github.com/storelytic/storetwin-backend/internal/engine/flow"
	"github.com/storelytic/storetwin-backend/internal/engine/learning"
	"github.com/storelytic/storetwin-backend/internal/engine/vmd"
)

// Pipeline states. FAILED is reachable from any state on unrecoverable error.
const (
	StateLoadingData     = "LOADING_DATA"
	StateAnalyzing       = "ANALYZING"
	StateBuildingRequest = "BUILDING_REQUEST"
	StateAIInference     = "AI_INFERENCE"
	StateRuleFallback    = "RULE_FALLBACK"
	StatePredicting      = "PREDICTING"
	StateMerging         = "MERGING"
	StateDone            = "DONE"
	StateFailed          = "FAILED"
)

var (
	ErrStoreNotFound = errors.New("store not found")
	ErrNoZones       = errors.New("store has no zones")
)

type Request struct {
	StoreID          uuid.UUID  `json:"store_id"`
	OptimizationType string     `json:"optimization_type"` // furniture | product | both | staffing
	Params           Parameters `json:"parameters"`
}

type Parameters struct {
	ZoneIDs      []uuid.UUID `json:"zone_ids,omitempty"`
	ProductIDs   []uuid.UUID `json:"product_ids,omitempty"`
	FurnitureIDs []uuid.UUID `json:"furniture_ids,omitempty"`

	MaxChanges int    `json:"max_changes,omitempty"`
	Intensity  string `json:"intensity,omitempty"` // low | medium | high
	Goal       string `json:"goal,omitempty"`      // revenue | conversion | traffic | balanced

	EnvironmentContext string   `json:"environment_context,omitempty"`
	DiagnosticIssues   []string `json:"diagnostic_issues,omitempty"`

	StaffingGoal             string `json:"staffing_goal,omitempty"`
	StaffCount               int    `json:"staff_count,omitempty"`
	IncludeStaffOptimization bool   `json:"include_staff_optimization,omitempty"`
	AllowFurnitureAdjustment bool   `json:"allow_furniture_adjustment,omitempty"`
}

// scope narrows a run to the zones, products and furniture the caller named.
// An empty set leaves its dimension unrestricted.
type scope struct {
	zones     map[uuid.UUID]bool
	products  map[uuid.UUID]bool
	furniture map[uuid.UUID]bool
}

func newScope(p Parameters) scope {
	return scope{
		zones:     idSet(p.ZoneIDs),
		products:  idSet(p.ProductIDs),
		furniture: idSet(p.FurnitureIDs),
	}
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	if len(ids) == 0 {
		return nil
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func (s scope) allowZone(id uuid.UUID) bool      { return len(s.zones) == 0 || s.zones[id] }
func (s scope) allowProduct(id uuid.UUID) bool   { return len(s.products) == 0 || s.products[id] }
func (s scope) allowFurniture(id uuid.UUID) bool { return len(s.furniture) == 0 || s.furniture[id] }

// Change is one proposed layout change, before and after prediction.
type Change struct {
	ChangeType string         `json:"change_type"`
	SubjectID  uuid.UUID      `json:"subject_id"`
	Current    map[string]any `json:"current,omitempty"`
	Suggested  map[string]any `json:"suggested,omitempty"`

	Reason               string  `json:"reason"`
	Priority             string  `json:"priority"`
	Metric               string  `json:"metric"` // revenue | conversion
	ExpectedImpact       float64 `json:"expected_impact"`
	PredictionConfidence float64 `json:"prediction_confidence"`
	Benchmark            string  `json:"benchmark,omitempty"`
}

type StaffAssignment struct {
	StaffID   uuid.UUID `json:"staff_id"`
	StaffName string    `json:"staff_name"`
	Role      string    `json:"role"`
	ZoneID    uuid.UUID `json:"zone_id"`
	ZoneName  string    `json:"zone_name"`
	Reason    string    `json:"reason"`
}

type StaffingResult struct {
	Assignments []StaffAssignment `json:"assignments"`
	Summary     string            `json:"summary"`
}

type ReportSummary struct {
	TotalFurnitureChanges         int     `json:"total_furniture_changes"`
	TotalProductChanges           int     `json:"total_product_changes"`
	ExpectedRevenueImprovement    float64 `json:"expected_revenue_improvement"`
	ExpectedTrafficImprovement    float64 `json:"expected_traffic_improvement"`
	ExpectedConversionImprovement float64 `json:"expected_conversion_improvement"`
	StaffingSummary               string  `json:"staffing_summary,omitempty"`
}

type Report struct {
	OptimizationID   uuid.UUID       `json:"optimization_id"`
	StoreID          uuid.UUID       `json:"store_id"`
	CreatedAt        time.Time       `json:"created_at"`
	OptimizationType string          `json:"optimization_type"`
	Source           string          `json:"source"` // ai | rules
	FurnitureChanges []Change        `json:"furniture_changes"`
	ProductChanges   []Change        `json:"product_changes"`
	StaffingResult   *StaffingResult `json:"staffing_result,omitempty"`
	Summary          ReportSummary   `json:"summary"`
}

type PredictionSummary struct {
	Count         int     `json:"count"`
	AvgImpact     float64 `json:"avg_impact"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// RunOutput is everything the API layer returns for one optimization run.
type RunOutput struct {
	Success                     bool                     `json:"success"`
	Report                      *Report                  `json:"result"`
	EnvironmentSummary          environment.Factors      `json:"environment_summary"`
	FlowSummary                 flow.Summary             `json:"flow_analysis_summary"`
	AssociationSummary          assoc.Summary            `json:"association_summary"`
	PredictionSummary           PredictionSummary        `json:"prediction_summary"`
	ConversionPredictionSummary PredictionSummary        `json:"conversion_prediction_summary"`
	VMD                         *vmd.Result              `json:"vmd_analysis"`
	LearningSession             *learning.SessionSummary `json:"learning_session,omitempty"`
}

// Snapshot is the read-only data bundle one run operates on. Degraded lists
// the sources that failed to load and were replaced with empty defaults.
type Snapshot struct {
	Store        *domain.Store
	Zones        []*domain.Zone
	Furniture    []*domain.Furniture
	Products     map[uuid.UUID]*domain.Product
	Slots        []*domain.ShelfSlot
	Transactions []*domain.StoreTransaction
	Transitions  []*domain.ZoneTransition
	Visits       []*domain.VisitRecord
	Environment  *domain.EnvironmentSnapshot
	Staff        []*domain.StaffMember
	Params       *domain.ModelParameterVersion
	RecentRuns   []*domain.OptimizationRun

	Degraded []string
}

// analysis holds the ANALYZING stage outputs plus derived aggregates.
type analysis struct {
	Env         environment.Factors
	Flow        *flow.Result
	Assoc       *assoc.Result
	VMD         *vmd.Result
	ProductPerf map[uuid.UUID]*domain.ProductPerformance
	ZonePerf    map[uuid.UUID]*domain.ZonePerformance
	// TrafficShare is each zone's incoming-transition share relative to
	// the store average (1.0 = average).
	TrafficShare map[uuid.UUID]float64
	WindowDays   int
}
