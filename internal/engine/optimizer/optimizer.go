package optimizer

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/assoc"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
	"github.com/storelytic/storetwin-backend/internal/engine/environment"
	"github.com/storelytic/storetwin-backend/internal/engine/flow"
	"github.com/storelytic/storetwin-backend/internal/engine/learning"
	"github.com/storelytic/storetwin-backend/internal/engine/predict"
	"github.com/storelytic/storetwin-backend/internal/engine/vmd"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

// Miner produces association analysis, usually through the cached miner.
type Miner interface {
	Mine(ctx context.Context, storeID uuid.UUID, in assoc.Input) *assoc.Result
}

// Learner recalibrates model parameters after a run.
type Learner interface {
	Run(ctx context.Context, storeID uuid.UUID) (*learning.SessionSummary, error)
}

// Service drives one optimization run through the pipeline states. A nil
// reasoner means rules-only operation; a nil learner disables recalibration.
type Service struct {
	store    DataStore
	sink     Sink
	reasoner Reasoner
	miner    Miner
	learner  Learner
	cfg      config.Config
	log      *logger.Logger
}

func NewService(store DataStore, sink Sink, reasoner Reasoner, miner Miner, learner Learner, cfg config.Config, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		sink:     sink,
		reasoner: reasoner,
		miner:    miner,
		learner:  learner,
		cfg:      cfg,
		log:      log.With("service", "OptimizerService"),
	}
}

// Run executes one optimization request end to end. Partial source data
// degrades the run, only a missing store or an empty zone list fails it.
func (s *Service) Run(ctx context.Context, req Request) (*RunOutput, error) {
	req = normalizeRequest(req)
	log := s.log.With("store_id", req.StoreID, "optimization_type", req.OptimizationType)

	log.Info("run started", "state", StateLoadingData)
	snap, err := s.loadSnapshot(ctx, req.StoreID)
	if err != nil {
		log.Error("run failed", "state", StateFailed, "error", err)
		return nil, err
	}
	if len(snap.Degraded) > 0 {
		log.Warn("running on partial data", "degraded_sources", snap.Degraded)
	}

	log.Info("state transition", "state", StateAnalyzing)
	an := s.analyze(ctx, snap)

	log.Info("state transition", "state", StateBuildingRequest)
	wantFurniture := req.OptimizationType == "furniture" || req.OptimizationType == "both" ||
		(req.OptimizationType == "staffing" && req.Params.AllowFurnitureAdjustment)
	wantProduct := req.OptimizationType == "product" || req.OptimizationType == "both"
	wantStaff := req.OptimizationType == "staffing" || req.Params.IncludeStaffOptimization

	source := "rules"
	var changes *reasonedChanges
	if s.reasoner != nil {
		log.Info("state transition", "state", StateAIInference)
		inferred, ierr := s.inferChanges(ctx, req, snap, an)
		if ierr != nil {
			log.Warn("reasoning unavailable, using rule fallback", "error", ierr)
		} else {
			changes = inferred
			source = "ai"
		}
	}
	if changes == nil {
		log.Info("state transition", "state", StateRuleFallback)
		changes = s.ruleFallback(newScope(req.Params), snap, an)
	}
	if !wantFurniture {
		changes.Furniture = nil
	}
	if !wantProduct {
		changes.Product = nil
	}

	log.Info("state transition", "state", StatePredicting)
	predSummary, convSummary := s.attachPredictions(req, snap, an, changes)

	log.Info("state transition", "state", StateMerging)
	report := s.mergeReport(req, an, changes, source)
	if wantStaff {
		staffing := report.StaffingResult
		if staffing == nil || len(staffing.Assignments) == 0 {
			staffing = s.buildStaffing(req, snap, an)
		}
		report.StaffingResult = staffing
		report.Summary.StaffingSummary = staffing.Summary
	} else {
		report.StaffingResult = nil
	}

	out := &RunOutput{
		Success:                     true,
		Report:                      report,
		EnvironmentSummary:          an.Env,
		FlowSummary:                 an.Flow.Summary,
		AssociationSummary:          an.Assoc.Summary,
		PredictionSummary:           predSummary,
		ConversionPredictionSummary: convSummary,
		VMD:                         an.VMD,
	}

	s.persist(ctx, report)
	out.LearningSession = s.runLearning(req.StoreID)

	log.Info("run completed",
		"state", StateDone,
		"source", source,
		"furniture_changes", len(report.FurnitureChanges),
		"product_changes", len(report.ProductChanges),
	)
	return out, nil
}

func normalizeRequest(req Request) Request {
	switch req.OptimizationType {
	case "furniture", "product", "staffing":
	default:
		req.OptimizationType = "both"
	}
	switch req.Params.Goal {
	case "revenue", "conversion", "traffic":
	default:
		req.Params.Goal = "balanced"
	}
	switch req.Params.Intensity {
	case "low", "high":
	default:
		req.Params.Intensity = "medium"
	}
	return req
}

func (s *Service) reasoningTimeout() time.Duration {
	secs := s.cfg.Orchestrator.ReasoningTimeoutSeconds
	if secs <= 0 {
		secs = 45
	}
	return time.Duration(secs) * time.Second
}

// maxChanges resolves the change cap from the request and scales it with the
// requested intensity.
func (s *Service) maxChanges(req Request) int {
	base := req.Params.MaxChanges
	if base <= 0 {
		base = s.cfg.Orchestrator.MaxChangesDefault
	}
	if base <= 0 {
		base = 10
	}
	switch req.Params.Intensity {
	case "low":
		base = (base + 1) / 2
	case "high":
		base = base + base/2
	}
	if base < 1 {
		base = 1
	}
	return base
}

// analyze runs every analyzer over the snapshot. None of them can fail;
// sparse input degrades to neutral results.
func (s *Service) analyze(ctx context.Context, snap *Snapshot) *analysis {
	an := &analysis{WindowDays: s.cfg.Association.WindowDays, Env: environment.Neutral()}
	if snap.Environment != nil {
		an.Env = environment.Derive(snap.Environment, s.cfg.Environment)
	}

	an.Flow = flow.Analyze(flow.Input{
		Zones:       snap.Zones,
		Transitions: snap.Transitions,
		Visits:      snap.Visits,
		Window:      time.Duration(s.cfg.Flow.WindowDays) * 24 * time.Hour,
	}, s.cfg.Flow)

	assocIn := assoc.Input{Transactions: snap.Transactions, Products: snap.Products}
	if s.miner != nil {
		an.Assoc = s.miner.Mine(ctx, snap.Store.ID, assocIn)
	} else {
		an.Assoc = assoc.Mine(assocIn, s.cfg.Association, s.log)
	}

	an.ProductPerf, an.ZonePerf, an.TrafficShare = aggregate(snap)

	an.VMD = vmd.Evaluate(vmd.Input{
		Zones:       snap.Zones,
		Furniture:   snap.Furniture,
		Products:    snap.Products,
		Slots:       snap.Slots,
		Flow:        an.Flow,
		Assoc:       an.Assoc,
		Performance: an.ProductPerf,
	}, s.cfg.VMD)
	return an
}

// attachPredictions runs the impact models over every candidate change and
// rewrites its impact, confidence and priority. Returns the revenue and
// conversion summaries.
func (s *Service) attachPredictions(req Request, snap *Snapshot, an *analysis, changes *reasonedChanges) (PredictionSummary, PredictionSummary) {
	furnitureZone := map[uuid.UUID]uuid.UUID{}
	for _, f := range snap.Furniture {
		furnitureZone[f.ID] = f.ZoneID
	}
	slotFurniture := map[uuid.UUID]uuid.UUID{}
	furnitureProducts := map[uuid.UUID][]uuid.UUID{}
	for _, slot := range snap.Slots {
		slotFurniture[slot.ID] = slot.FurnitureID
		if slot.ProductID != nil {
			furnitureProducts[slot.FurnitureID] = append(furnitureProducts[slot.FurnitureID], *slot.ProductID)
		}
	}

	windowDays := float64(an.WindowDays)
	if windowDays <= 0 {
		windowDays = 1
	}
	now := time.Now().UTC()
	conversionGoal := req.Params.Goal == "conversion"

	var revSum, revConf, convSum, convConf float64
	var revN, convN int

	apply := func(c *Change, destZone uuid.UUID, baseline float64, samples int, ageDays float64, category string) {
		share, ok := an.TrafficShare[destZone]
		if !ok {
			share = 1.0
		}
		in := predict.Input{
			ChangeType:       c.ChangeType,
			Baseline:         baseline,
			DestTrafficShare: share,
			EnvFactor:        an.Env.Traffic,
			SampleSize:       samples,
			DataAgeDays:      ageDays,
			Category:         category,
		}
		rev := predict.Revenue(in, snap.Params, s.cfg.Prediction)
		revSum += rev.Impact
		revConf += rev.Confidence
		revN++

		convIn := in
		convIn.EnvFactor = an.Env.Conversion
		convIn.Baseline = s.conversionBaseline(an, destZone)
		if zp := an.ZonePerf[destZone]; zp != nil {
			convIn.SampleSize = zp.Visits
		}
		conv := predict.Conversion(convIn, snap.Params, s.cfg.Prediction)
		convSum += conv.Impact
		convConf += conv.Confidence
		convN++

		chosen := rev
		if conversionGoal || c.Metric == "conversion" {
			chosen = conv
			c.Metric = "conversion"
		} else {
			c.Metric = "revenue"
		}
		c.ExpectedImpact = chosen.Impact
		c.PredictionConfidence = chosen.Confidence
		c.Priority = chosen.Priority
		c.Benchmark = conv.Benchmark
	}

	for i := range changes.Furniture {
		c := &changes.Furniture[i]
		baseline, samples, age := 0.0, 0, 365.0
		for _, pid := range furnitureProducts[c.SubjectID] {
			if perf := an.ProductPerf[pid]; perf != nil {
				baseline += perf.Revenue
				samples += perf.Units
				if d := now.Sub(perf.LastSold).Hours() / 24; d < age {
					age = d
				}
			}
		}
		destZone := suggestedZone(c, furnitureZone[c.SubjectID])
		apply(c, destZone, baseline/windowDays, samples, age, "")
	}

	for i := range changes.Product {
		c := &changes.Product[i]
		baseline, samples, age := 0.0, 0, 365.0
		category := ""
		if p := snap.Products[c.SubjectID]; p != nil {
			category = p.Category
		}
		if perf := an.ProductPerf[c.SubjectID]; perf != nil {
			baseline = perf.Revenue
			samples = perf.Units
			age = now.Sub(perf.LastSold).Hours() / 24
		}
		destFurniture := suggestedFurniture(c)
		destZone := furnitureZone[destFurniture]
		apply(c, destZone, baseline/windowDays, samples, age, category)
	}

	pred := PredictionSummary{Count: revN}
	if revN > 0 {
		pred.AvgImpact = revSum / float64(revN)
		pred.AvgConfidence = revConf / float64(revN)
	}
	conv := PredictionSummary{Count: convN}
	if convN > 0 {
		conv.AvgImpact = convSum / float64(convN)
		conv.AvgConfidence = convConf / float64(convN)
	}
	return pred, conv
}

// conversionBaseline is the destination zone's observed conversion rate,
// falling back to the store-wide rate.
func (s *Service) conversionBaseline(an *analysis, zoneID uuid.UUID) float64 {
	if zp := an.ZonePerf[zoneID]; zp != nil && zp.Visits > 0 {
		return zp.ConversionRate()
	}
	visits, conversions := 0, 0
	for _, zp := range an.ZonePerf {
		visits += zp.Visits
		conversions += zp.Conversions
	}
	if visits == 0 {
		return 0
	}
	return float64(conversions) / float64(visits)
}

// mergeReport ranks the predicted changes, enforces the change cap across
// both lists and derives the headline improvement figures.
func (s *Service) mergeReport(req Request, an *analysis, changes *reasonedChanges, source string) *Report {
	limit := s.maxChanges(req)

	type ranked struct {
		change    Change
		furniture bool
	}
	all := make([]ranked, 0, len(changes.Furniture)+len(changes.Product))
	for _, c := range changes.Furniture {
		all = append(all, ranked{change: c, furniture: true})
	}
	for _, c := range changes.Product {
		all = append(all, ranked{change: c})
	}
	sort.SliceStable(all, func(i, j int) bool {
		ri, rj := priorityRank(all[i].change.Priority), priorityRank(all[j].change.Priority)
		if ri != rj {
			return ri < rj
		}
		mi, mj := math.Abs(all[i].change.ExpectedImpact), math.Abs(all[j].change.ExpectedImpact)
		if mi != mj {
			return mi > mj
		}
		return all[i].change.SubjectID.String() < all[j].change.SubjectID.String()
	})
	if len(all) > limit {
		all = all[:limit]
	}

	report := &Report{
		OptimizationID:   uuid.New(),
		StoreID:          req.StoreID,
		CreatedAt:        time.Now().UTC(),
		OptimizationType: req.OptimizationType,
		Source:           source,
		FurnitureChanges: []Change{},
		ProductChanges:   []Change{},
	}
	if len(changes.Staffing) > 0 {
		report.StaffingResult = &StaffingResult{
			Assignments: changes.Staffing,
			Summary:     "staff repositioned per reasoning suggestions",
		}
	}

	deadZones := map[uuid.UUID]bool{}
	for _, dz := range an.Flow.DeadZones {
		deadZones[dz.ZoneID] = true
	}
	for _, opp := range an.Flow.Opportunities {
		deadZones[opp.ZoneID] = true
	}

	var revSum, convSum, traffic float64
	var revN, convN int
	for _, r := range all {
		c := r.change
		if r.furniture {
			report.FurnitureChanges = append(report.FurnitureChanges, c)
			if deadZones[suggestedZone(&c, uuid.Nil)] {
				traffic += 2.0
			}
		} else {
			report.ProductChanges = append(report.ProductChanges, c)
		}
		switch c.Metric {
		case "conversion":
			if c.ExpectedImpact > 0 {
				convSum += c.ExpectedImpact
				convN++
			}
		default:
			if c.ExpectedImpact > 0 {
				revSum += c.ExpectedImpact
				revN++
			}
		}
	}
	if traffic > 10 {
		traffic = 10
	}

	report.Summary = ReportSummary{
		TotalFurnitureChanges:      len(report.FurnitureChanges),
		TotalProductChanges:        len(report.ProductChanges),
		ExpectedTrafficImprovement: traffic,
	}
	if revN > 0 {
		report.Summary.ExpectedRevenueImprovement = round1(revSum / float64(revN) * 100)
	}
	if convN > 0 {
		report.Summary.ExpectedConversionImprovement = round1(convSum / float64(convN) * 100)
	}
	return report
}

// persist writes the audit run and the pending recommendations. Persistence
// failure degrades the run to in-memory results, it never fails the request.
func (s *Service) persist(ctx context.Context, report *Report) {
	if s.sink == nil {
		return
	}
	summary, _ := json.Marshal(report.Summary)
	run := &domain.OptimizationRun{
		ID:               report.OptimizationID,
		StoreID:          report.StoreID,
		OptimizationType: report.OptimizationType,
		Source:           report.Source,
		Status:           "done",
		Summary:          datatypes.JSON(summary),
	}
	if err := s.sink.CreateRun(ctx, run); err != nil {
		s.log.Error("persist optimization run failed", "store_id", report.StoreID, "error", err)
		return
	}

	var recs []*domain.Recommendation
	add := func(c Change) {
		current, _ := json.Marshal(c.Current)
		suggested, _ := json.Marshal(c.Suggested)
		recs = append(recs, &domain.Recommendation{
			StoreID:              report.StoreID,
			RunID:                report.OptimizationID,
			ChangeType:           c.ChangeType,
			SubjectID:            c.SubjectID,
			Current:              datatypes.JSON(current),
			Suggested:            datatypes.JSON(suggested),
			Reason:               c.Reason,
			Priority:             c.Priority,
			Metric:               c.Metric,
			ExpectedImpact:       c.ExpectedImpact,
			PredictionConfidence: c.PredictionConfidence,
			Status:               domain.RecommendationPending,
		})
	}
	for _, c := range report.FurnitureChanges {
		add(c)
	}
	for _, c := range report.ProductChanges {
		add(c)
	}
	if len(recs) == 0 {
		return
	}
	if err := s.sink.CreateRecommendations(ctx, recs); err != nil {
		s.log.Error("persist recommendations failed", "store_id", report.StoreID, "error", err)
	}
}

// runLearning triggers recalibration with its own deadline, detached from the
// request context. A slow or failing session is abandoned silently and the
// run's result is unaffected.
func (s *Service) runLearning(storeID uuid.UUID) *learning.SessionSummary {
	if s.learner == nil {
		return nil
	}
	timeout := time.Duration(s.cfg.Learning.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	type result struct {
		summary *learning.SessionSummary
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("learning session panicked", "store_id", storeID, "panic", r)
			}
		}()
		summary, err := s.learner.Run(ctx, storeID)
		ch <- result{summary: summary, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			s.log.Warn("learning session failed", "store_id", storeID, "error", r.err)
			return nil
		}
		return r.summary
	case <-ctx.Done():
		s.log.Warn("learning session timed out", "store_id", storeID)
		return nil
	}
}

func priorityRank(p string) int {
	switch p {
	case domain.PriorityHigh:
		return 0
	case domain.PriorityMedium:
		return 1
	default:
		return 2
	}
}

func suggestedZone(c *Change, fallback uuid.UUID) uuid.UUID {
	if raw, ok := c.Suggested["zone_id"].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id
		}
	}
	return fallback
}

func suggestedFurniture(c *Change) uuid.UUID {
	if raw, ok := c.Suggested["furniture_id"].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
