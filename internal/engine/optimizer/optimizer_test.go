package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/assoc"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
	"github.com/storelytic/storetwin-backend/internal/engine/environment"
	"github.com/storelytic/storetwin-backend/internal/engine/flow"
	"github.com/storelytic/storetwin-backend/internal/engine/learning"
	"github.com/storelytic/storetwin-backend/internal/engine/vmd"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func testService(t *testing.T) *Service {
	t.Helper()
	return &Service{cfg: config.Default(), log: testLogger(t)}
}

func emptyAnalysis() *analysis {
	return &analysis{
		Env:          environment.Neutral(),
		Flow:         &flow.Result{},
		Assoc:        &assoc.Result{},
		VMD:          &vmd.Result{},
		TrafficShare: map[uuid.UUID]float64{},
		ZonePerf:     map[uuid.UUID]*domain.ZonePerformance{},
		ProductPerf:  map[uuid.UUID]*domain.ProductPerformance{},
		WindowDays:   90,
	}
}

func TestNormalizeRequest_Defaults(t *testing.T) {
	req := normalizeRequest(Request{OptimizationType: "everything"})
	if req.OptimizationType != "both" {
		t.Fatalf("expected both, got %q", req.OptimizationType)
	}
	if req.Params.Goal != "balanced" || req.Params.Intensity != "medium" {
		t.Fatalf("expected balanced/medium defaults, got %+v", req.Params)
	}
}

func TestMaxChanges_IntensityScaling(t *testing.T) {
	s := testService(t)
	base := Request{Params: Parameters{MaxChanges: 10}}

	low := base
	low.Params.Intensity = "low"
	if got := s.maxChanges(low); got != 5 {
		t.Fatalf("expected low intensity to halve the cap, got %d", got)
	}
	high := base
	high.Params.Intensity = "high"
	if got := s.maxChanges(high); got != 15 {
		t.Fatalf("expected high intensity at 15, got %d", got)
	}
	if got := s.maxChanges(base); got != 10 {
		t.Fatalf("expected the raw cap, got %d", got)
	}
	if got := s.maxChanges(Request{}); got != 10 {
		t.Fatalf("expected the configured default cap, got %d", got)
	}
}

func TestRuleFallback_Deterministic(t *testing.T) {
	s := testService(t)
	snap, an := fallbackFixture()

	first := s.ruleFallback(scope{}, snap, an)
	second := s.ruleFallback(scope{}, snap, an)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fallback must be deterministic for an identical snapshot")
	}
	if len(first.Furniture) == 0 || len(first.Product) == 0 {
		t.Fatalf("fixture should produce both change kinds, got %+v", first)
	}
}

// fallbackFixture builds a snapshot with a flow opportunity, an unmet
// cross-sell placement and spare golden-band capacity beside the anchor.
func fallbackFixture() (*Snapshot, *analysis) {
	busy := &domain.Zone{ID: uuid.New(), Name: "Front", Type: "display"}
	dead := &domain.Zone{ID: uuid.New(), Name: "Back", Type: "display"}

	endcap := &domain.Furniture{ID: uuid.New(), ZoneID: busy.ID, Type: "endcap", Movable: true}
	shelfA := &domain.Furniture{ID: uuid.New(), ZoneID: busy.ID, Type: "shelf", Movable: false}
	shelfB := &domain.Furniture{ID: uuid.New(), ZoneID: dead.ID, Type: "shelf", Movable: false}

	anchor := &domain.Product{ID: uuid.New(), Name: "wine", Category: "beverages", Price: 15}
	partner := &domain.Product{ID: uuid.New(), Name: "cheese", Category: "dairy", Price: 8}

	anchorID, partnerID := anchor.ID, partner.ID
	slots := []*domain.ShelfSlot{
		{ID: uuid.New(), FurnitureID: shelfA.ID, SlotIndex: 0, Band: "eye", ProductID: &anchorID},
		{ID: uuid.New(), FurnitureID: shelfA.ID, SlotIndex: 1, Band: "stoop"},
		{ID: uuid.New(), FurnitureID: shelfA.ID, SlotIndex: 2, Band: "eye"},
		{ID: uuid.New(), FurnitureID: shelfB.ID, SlotIndex: 0, Band: "reach", ProductID: &partnerID},
	}

	snap := &Snapshot{
		Zones:     []*domain.Zone{busy, dead},
		Furniture: []*domain.Furniture{endcap, shelfA, shelfB},
		Products:  map[uuid.UUID]*domain.Product{anchor.ID: anchor, partner.ID: partner},
		Slots:     slots,
	}
	an := emptyAnalysis()
	an.TrafficShare = map[uuid.UUID]float64{busy.ID: 2.0, dead.ID: 0.1}
	an.Flow = &flow.Result{
		Opportunities: []flow.Opportunity{{
			ZoneID:      dead.ID,
			Kind:        "activate_zone",
			Priority:    domain.PriorityHigh,
			Description: "Back receives almost no traffic",
		}},
	}
	an.Assoc = &assoc.Result{
		Placements: []assoc.Placement{{
			Kind:      "cross_sell",
			AnchorID:  anchor.ID,
			PartnerID: partner.ID,
			Score:     2.0,
			Reason:    "frequently co-purchased",
		}},
	}
	return snap, an
}

func TestFallbackFurniture_MovesDisplayTowardOpportunity(t *testing.T) {
	s := testService(t)
	snap, an := fallbackFixture()

	changes := s.fallbackFurniture(scope{}, snap, an)
	if len(changes) != 1 {
		t.Fatalf("expected one furniture change, got %d", len(changes))
	}
	c := changes[0]
	endcap := snap.Furniture[0]
	dead := snap.Zones[1]
	if c.SubjectID != endcap.ID {
		t.Fatalf("expected the movable endcap selected, got %s", c.SubjectID)
	}
	if c.Suggested["zone_id"] != dead.ID.String() {
		t.Fatalf("expected a move into the opportunity zone, got %+v", c.Suggested)
	}
	if c.Priority != domain.PriorityHigh || c.Metric != "revenue" {
		t.Fatalf("unexpected change metadata: %+v", c)
	}
}

func TestFallbackFurniture_ImmovableNeverSelected(t *testing.T) {
	s := testService(t)
	snap, an := fallbackFixture()
	for _, f := range snap.Furniture {
		f.Movable = false
	}
	if changes := s.fallbackFurniture(scope{}, snap, an); len(changes) != 0 {
		t.Fatalf("immovable fixtures must never move, got %+v", changes)
	}
}

func TestFallbackProducts_PartnerClaimsGoldenBandBesideAnchor(t *testing.T) {
	s := testService(t)
	snap, an := fallbackFixture()

	changes := s.fallbackProducts(scope{}, snap, an)
	if len(changes) != 1 {
		t.Fatalf("expected one product change, got %d", len(changes))
	}
	c := changes[0]
	partner := snap.Slots[3]
	goldenFree := snap.Slots[2]
	if c.SubjectID != *partner.ProductID {
		t.Fatalf("expected the partner product moved, got %s", c.SubjectID)
	}
	if c.Suggested["slot_id"] != goldenFree.ID.String() {
		t.Fatalf("expected the free eye-band slot claimed first, got %+v", c.Suggested)
	}
	if c.Current["slot_id"] != partner.ID.String() {
		t.Fatalf("expected the current slot recorded, got %+v", c.Current)
	}
}

func TestRuleFallback_ZoneScopeExcludesTargets(t *testing.T) {
	s := testService(t)
	snap, an := fallbackFixture()
	busy := snap.Zones[0]

	sc := newScope(Parameters{ZoneIDs: []uuid.UUID{busy.ID}})
	out := s.ruleFallback(sc, snap, an)
	if len(out.Furniture) != 0 {
		t.Fatalf("the opportunity zone is out of scope, got %+v", out.Furniture)
	}
	if len(out.Product) != 1 {
		t.Fatalf("the in-scope product move must survive, got %+v", out.Product)
	}
	if out.Product[0].Suggested["furniture_id"] != snap.Furniture[1].ID.String() {
		t.Fatalf("expected a move within the scoped zone, got %+v", out.Product[0].Suggested)
	}
}

func TestRuleFallback_SubjectScopes(t *testing.T) {
	s := testService(t)
	snap, an := fallbackFixture()
	anchorID := *snap.Slots[0].ProductID

	sc := newScope(Parameters{FurnitureIDs: []uuid.UUID{snap.Furniture[1].ID}})
	if out := s.ruleFallback(sc, snap, an); len(out.Furniture) != 0 {
		t.Fatalf("the movable endcap is out of scope, got %+v", out.Furniture)
	}

	sc = newScope(Parameters{ProductIDs: []uuid.UUID{anchorID}})
	if out := s.ruleFallback(sc, snap, an); len(out.Product) != 0 {
		t.Fatalf("the partner product is out of scope, got %+v", out.Product)
	}
}

func TestParseResponseText_ToleratesCommentary(t *testing.T) {
	s := testService(t)
	snap, _ := fallbackFixture()
	endcap := snap.Furniture[0]
	dead := snap.Zones[1]

	text := fmt.Sprintf(`Here is my suggestion:
{"furniture_changes":[{"subject_id":%q,"target_zone_id":%q,"reason":"activate the back","priority":"high"}],"product_changes":[]}
Let me know if you need more.`, endcap.ID, dead.ID)

	parsed, err := s.ParseResponseText(text, snap)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(parsed.Furniture) != 1 || parsed.Furniture[0].SubjectID != endcap.ID {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
	if parsed.Furniture[0].Priority != domain.PriorityHigh {
		t.Fatalf("expected high priority, got %q", parsed.Furniture[0].Priority)
	}
}

func TestParseResponseText_MalformedInputsNeverPanic(t *testing.T) {
	s := testService(t)
	snap, _ := fallbackFixture()

	inputs := []string{
		"",
		"no json here at all",
		`{"furniture_changes": [`,
		`{"furniture_changes": "not-an-array"}`,
		`{"furniture_changes": [42, null, "string"]}`,
		`{"furniture_changes": [{"subject_id": "not-a-uuid", "target_zone_id": "also-bad"}]}`,
		`{}`,
		`{"unrelated": {"nested": "object"}}`,
	}
	for _, in := range inputs {
		if _, err := s.ParseResponseText(in, snap); err == nil {
			t.Fatalf("expected an error for %q", in)
		}
	}
}

func TestParseResponseText_FuzzedResponsesFailSafe(t *testing.T) {
	s := testService(t)
	snap, _ := fallbackFixture()
	endcap := snap.Furniture[0]
	dead := snap.Zones[1]

	valid := fmt.Sprintf(`{"furniture_changes":[{"subject_id":%q,"target_zone_id":%q,"reason":"activate the back","priority":"high"}],"product_changes":[]}`, endcap.ID, dead.ID)
	alphabet := []byte("{}[]\",:truefalsenull\\")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		b := []byte(valid)
		for m := 0; m < 1+rng.Intn(8); m++ {
			b[rng.Intn(len(b))] = alphabet[rng.Intn(len(alphabet))]
		}
		switch i % 4 {
		case 1:
			b = b[:rng.Intn(len(b)+1)]
		case 2:
			b = append([]byte("Sure, here are my suggestions:\n"), b...)
			b = append(b, "\nLet me know what you think."...)
		case 3:
			b = append(b, b...)
		}
		parsed, err := s.ParseResponseText(string(b), snap)
		if err == nil && (parsed == nil || len(parsed.Furniture)+len(parsed.Product)+len(parsed.Staffing) == 0) {
			t.Fatalf("case %d: accepted a response with no usable changes: %q", i, b)
		}
	}
}

func TestBuildUserPrompt_CarriesScopeAndEnvironmentContext(t *testing.T) {
	s := testService(t)
	snap, an := fallbackFixture()
	busy := snap.Zones[0]
	endcap := snap.Furniture[0]

	req := Request{
		OptimizationType: "both",
		Params: Parameters{
			Goal:               "revenue",
			Intensity:          "medium",
			EnvironmentContext: "heatwave forecast all week",
			ZoneIDs:            []uuid.UUID{busy.ID},
		},
	}
	prompt := s.buildUserPrompt(req, snap, an)
	if !strings.Contains(prompt, "heatwave forecast all week") {
		t.Fatalf("expected the environment context serialized")
	}
	if !strings.Contains(prompt, busy.ID.String()) {
		t.Fatalf("expected the requested zone ids serialized")
	}

	req.Params.FurnitureIDs = []uuid.UUID{snap.Furniture[1].ID}
	prompt = s.buildUserPrompt(req, snap, an)
	if strings.Contains(prompt, endcap.ID.String()) {
		t.Fatalf("out-of-scope furniture must not be offered to the model")
	}
}

func TestValidateResponse_DropsInvalidKeepsValid(t *testing.T) {
	s := testService(t)
	snap, _ := fallbackFixture()
	endcap := snap.Furniture[0]
	immovable := snap.Furniture[1]
	dead := snap.Zones[1]

	obj := map[string]any{
		"furniture_changes": []any{
			map[string]any{"subject_id": uuid.New().String(), "target_zone_id": dead.ID.String(), "reason": "unknown fixture", "priority": "high"},
			map[string]any{"subject_id": immovable.ID.String(), "target_zone_id": dead.ID.String(), "reason": "immovable", "priority": "high"},
			map[string]any{"subject_id": endcap.ID.String(), "target_zone_id": endcap.ZoneID.String(), "reason": "same zone", "priority": "high"},
			map[string]any{"subject_id": endcap.ID.String(), "target_zone_id": dead.ID.String(), "reason": "valid", "priority": "urgent"},
		},
	}
	parsed, err := s.validateResponse(obj, snap, scope{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(parsed.Furniture) != 1 {
		t.Fatalf("expected exactly the valid entry, got %+v", parsed.Furniture)
	}
	if parsed.Furniture[0].Priority != domain.PriorityMedium {
		t.Fatalf("unknown priority must normalize to medium, got %q", parsed.Furniture[0].Priority)
	}
}

func TestValidateResponse_RejectsOutOfScopeChanges(t *testing.T) {
	s := testService(t)
	snap, _ := fallbackFixture()
	endcap := snap.Furniture[0]
	busy := snap.Zones[0]
	dead := snap.Zones[1]

	obj := map[string]any{
		"furniture_changes": []any{
			map[string]any{"subject_id": endcap.ID.String(), "target_zone_id": dead.ID.String(), "reason": "activate the back", "priority": "high"},
		},
	}

	// Valid on its own, but the run was scoped away from its target zone.
	sc := newScope(Parameters{ZoneIDs: []uuid.UUID{busy.ID}})
	if _, err := s.validateResponse(obj, snap, sc); err == nil {
		t.Fatalf("a change into an out-of-scope zone must not validate")
	}

	sc = newScope(Parameters{FurnitureIDs: []uuid.UUID{snap.Furniture[1].ID}})
	if _, err := s.validateResponse(obj, snap, sc); err == nil {
		t.Fatalf("an out-of-scope subject must not validate")
	}
}

func TestMergeReport_CapAndPriorityOrdering(t *testing.T) {
	s := testService(t)
	req := Request{StoreID: uuid.New(), Params: Parameters{MaxChanges: 2}}

	changes := &reasonedChanges{Product: []Change{
		{ChangeType: domain.ChangeTypeProduct, SubjectID: uuid.New(), Priority: domain.PriorityLow, Metric: "revenue", ExpectedImpact: 0.01},
		{ChangeType: domain.ChangeTypeProduct, SubjectID: uuid.New(), Priority: domain.PriorityHigh, Metric: "revenue", ExpectedImpact: 0.2},
		{ChangeType: domain.ChangeTypeProduct, SubjectID: uuid.New(), Priority: domain.PriorityMedium, Metric: "revenue", ExpectedImpact: 0.1},
	}}
	report := s.mergeReport(req, emptyAnalysis(), changes, "rules")

	if len(report.ProductChanges) != 2 {
		t.Fatalf("expected the cap enforced, got %d changes", len(report.ProductChanges))
	}
	if report.ProductChanges[0].Priority != domain.PriorityHigh || report.ProductChanges[1].Priority != domain.PriorityMedium {
		t.Fatalf("expected high then medium, got %+v", report.ProductChanges)
	}
	if report.Summary.TotalProductChanges != 2 || report.Summary.TotalFurnitureChanges != 0 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	// Mean positive impact of the kept changes, as a percentage.
	if report.Summary.ExpectedRevenueImprovement != 15.0 {
		t.Fatalf("expected 15.0, got %v", report.Summary.ExpectedRevenueImprovement)
	}
}

func TestAttachPredictions_PreservesConversionMetric(t *testing.T) {
	s := testService(t)
	snap, an := fallbackFixture()
	entrance := snap.Zones[0]

	changes := &reasonedChanges{Furniture: []Change{
		{
			ChangeType: domain.ChangeTypeFurniture,
			SubjectID:  snap.Furniture[0].ID,
			Suggested:  map[string]any{"zone_id": entrance.ID.String()},
			Metric:     "conversion",
		},
		{
			ChangeType: domain.ChangeTypeFurniture,
			SubjectID:  snap.Furniture[0].ID,
			Suggested:  map[string]any{"zone_id": entrance.ID.String()},
			Metric:     "revenue",
		},
	}}
	rev, conv := s.attachPredictions(Request{Params: Parameters{Goal: "balanced"}}, snap, an, changes)

	if changes.Furniture[0].Metric != "conversion" {
		t.Fatalf("conversion-framed change must keep its metric, got %q", changes.Furniture[0].Metric)
	}
	if changes.Furniture[1].Metric != "revenue" {
		t.Fatalf("revenue change must stay revenue, got %q", changes.Furniture[1].Metric)
	}
	if rev.Count != 2 || conv.Count != 2 {
		t.Fatalf("expected both models run per change, got %+v %+v", rev, conv)
	}
}

func TestBuildStaffing_BottlenecksFirstThenEntrance(t *testing.T) {
	s := testService(t)
	entry := &domain.Zone{ID: uuid.New(), Name: "Entry", Type: "entrance"}
	mid := &domain.Zone{ID: uuid.New(), Name: "Mid", Type: "display"}
	back := &domain.Zone{ID: uuid.New(), Name: "Back", Type: "display"}

	a := &domain.StaffMember{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Name: "Avery", Role: "associate", Available: true}
	b := &domain.StaffMember{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Name: "Blair", Role: "cashier", Available: true}

	snap := &Snapshot{
		Zones: []*domain.Zone{entry, mid, back},
		Staff: []*domain.StaffMember{b, a},
	}
	an := emptyAnalysis()
	an.Flow = &flow.Result{Bottlenecks: []flow.Bottleneck{{ZoneID: mid.ID, ZoneName: "Mid", Severity: "high"}}}

	res := s.buildStaffing(Request{}, snap, an)
	if len(res.Assignments) != 2 {
		t.Fatalf("expected both staff assigned, got %+v", res)
	}
	if res.Assignments[0].StaffID != a.ID || res.Assignments[0].ZoneID != mid.ID {
		t.Fatalf("expected the first member on the bottleneck, got %+v", res.Assignments[0])
	}
	if res.Assignments[1].ZoneID != entry.ID {
		t.Fatalf("expected the second member at the entrance, got %+v", res.Assignments[1])
	}
	if res.Summary != "2 of 2 staff repositioned; 1 bottleneck zone(s) covered" {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
}

func TestBuildStaffing_CoverageGoalSkipsEntrance(t *testing.T) {
	s := testService(t)
	entry := &domain.Zone{ID: uuid.New(), Name: "Entry", Type: "entrance"}
	mid := &domain.Zone{ID: uuid.New(), Name: "Mid", Type: "display"}
	snap := &Snapshot{
		Zones: []*domain.Zone{entry, mid},
		Staff: []*domain.StaffMember{{ID: uuid.New(), Name: "Avery", Role: "associate", Available: true}},
	}
	an := emptyAnalysis()
	an.TrafficShare = map[uuid.UUID]float64{mid.ID: 1.5, entry.ID: 1.0}

	res := s.buildStaffing(Request{Params: Parameters{StaffingGoal: "coverage"}}, snap, an)
	if len(res.Assignments) != 1 || res.Assignments[0].ZoneID != mid.ID {
		t.Fatalf("coverage goal should fill the busiest floor zone, got %+v", res.Assignments)
	}
}

type fakeLearner struct {
	summary *learning.SessionSummary
	err     error
	block   bool
}

func (f *fakeLearner) Run(ctx context.Context, storeID uuid.UUID) (*learning.SessionSummary, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.summary, f.err
}

func TestRunLearning_FastSessionReturned(t *testing.T) {
	s := testService(t)
	want := &learning.SessionSummary{AdjustmentsApplied: 1, NewVersion: 2}
	s.learner = &fakeLearner{summary: want}

	if got := s.runLearning(uuid.New()); got != want {
		t.Fatalf("expected the session summary, got %+v", got)
	}
}

func TestRunLearning_FailureAndTimeoutAbandoned(t *testing.T) {
	s := testService(t)
	s.learner = &fakeLearner{err: errors.New("boom")}
	if got := s.runLearning(uuid.New()); got != nil {
		t.Fatalf("failed session must be abandoned, got %+v", got)
	}

	s.cfg.Learning.TimeoutSeconds = 1
	s.learner = &fakeLearner{block: true}
	start := time.Now()
	if got := s.runLearning(uuid.New()); got != nil {
		t.Fatalf("slow session must be abandoned, got %+v", got)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout should bound the wait")
	}
}

// fakeData serves a snapshot with selectable failures per source.
type fakeData struct {
	store *domain.Store
	zones []*domain.Zone

	failTransactions bool
	failEnvironment  bool
}

func (f *fakeData) GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	if f.store == nil {
		return nil, errors.New("no rows")
	}
	return f.store, nil
}

func (f *fakeData) ListZones(ctx context.Context, storeID uuid.UUID) ([]*domain.Zone, error) {
	return f.zones, nil
}

func (f *fakeData) ListFurniture(ctx context.Context, storeID uuid.UUID) ([]*domain.Furniture, error) {
	return nil, nil
}

func (f *fakeData) ListProducts(ctx context.Context, storeID uuid.UUID) ([]*domain.Product, error) {
	return nil, nil
}

func (f *fakeData) ListSlots(ctx context.Context, storeID uuid.UUID) ([]*domain.ShelfSlot, error) {
	return nil, nil
}

func (f *fakeData) ListTransactions(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.StoreTransaction, error) {
	if f.failTransactions {
		return nil, errors.New("pos offline")
	}
	return nil, nil
}

func (f *fakeData) ListTransitions(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.ZoneTransition, error) {
	return nil, nil
}

func (f *fakeData) ListVisits(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.VisitRecord, error) {
	return nil, nil
}

func (f *fakeData) LatestEnvironment(ctx context.Context, storeID uuid.UUID) (*domain.EnvironmentSnapshot, error) {
	if f.failEnvironment {
		return nil, errors.New("sensor gap")
	}
	return nil, nil
}

func (f *fakeData) ListStaff(ctx context.Context, storeID uuid.UUID) ([]*domain.StaffMember, error) {
	return nil, nil
}

func (f *fakeData) LatestParameters(ctx context.Context, storeID uuid.UUID) (*domain.ModelParameterVersion, error) {
	return nil, nil
}

func (f *fakeData) ListRecentRuns(ctx context.Context, storeID uuid.UUID, limit int) ([]*domain.OptimizationRun, error) {
	return nil, nil
}

type fakeSink struct {
	run  *domain.OptimizationRun
	recs []*domain.Recommendation
}

func (f *fakeSink) CreateRun(ctx context.Context, run *domain.OptimizationRun) error {
	f.run = run
	return nil
}

func (f *fakeSink) CreateRecommendations(ctx context.Context, recs []*domain.Recommendation) error {
	f.recs = recs
	return nil
}

func TestRun_StoreNotFound(t *testing.T) {
	s := NewService(&fakeData{}, nil, nil, nil, nil, config.Default(), testLogger(t))
	_, err := s.Run(context.Background(), Request{StoreID: uuid.New()})
	if !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestRun_NoZonesFails(t *testing.T) {
	storeID := uuid.New()
	data := &fakeData{store: &domain.Store{ID: storeID, Name: "Flagship"}}
	s := NewService(data, nil, nil, nil, nil, config.Default(), testLogger(t))
	_, err := s.Run(context.Background(), Request{StoreID: storeID})
	if !errors.Is(err, ErrNoZones) {
		t.Fatalf("expected ErrNoZones, got %v", err)
	}
}

func TestRun_DegradedSourcesStillComplete(t *testing.T) {
	storeID := uuid.New()
	data := &fakeData{
		store: &domain.Store{ID: storeID, Name: "Flagship"},
		zones: []*domain.Zone{
			{ID: uuid.New(), StoreID: storeID, Name: "Entry", Type: "entrance"},
			{ID: uuid.New(), StoreID: storeID, Name: "Floor", Type: "display"},
		},
		failTransactions: true,
		failEnvironment:  true,
	}
	sink := &fakeSink{}
	s := NewService(data, sink, nil, nil, nil, config.Default(), testLogger(t))

	out, err := s.Run(context.Background(), Request{StoreID: storeID})
	if err != nil {
		t.Fatalf("degraded sources must not fail the run: %v", err)
	}
	if !out.Success {
		t.Fatalf("a completed run must be flagged successful")
	}
	if out.Report.Source != "rules" {
		t.Fatalf("expected rules source without a reasoner, got %q", out.Report.Source)
	}
	if out.AssociationSummary.DataQuality != "insufficient" {
		t.Fatalf("expected insufficient association data, got %q", out.AssociationSummary.DataQuality)
	}
	if out.EnvironmentSummary.DataQuality != "missing" {
		t.Fatalf("expected neutral environment factors, got %+v", out.EnvironmentSummary)
	}
	if out.LearningSession != nil {
		t.Fatalf("nil learner must yield no session")
	}
	if sink.run == nil || sink.run.Status != "done" {
		t.Fatalf("expected the audit run persisted as done, got %+v", sink.run)
	}
	if sink.run.OptimizationType != "both" {
		t.Fatalf("expected the normalized type persisted, got %q", sink.run.OptimizationType)
	}
}
