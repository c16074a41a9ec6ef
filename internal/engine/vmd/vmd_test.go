package vmd

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func hasViolation(res *Result, principle string) bool {
	for _, v := range res.Violations {
		if v.Principle == principle {
			return true
		}
	}
	return false
}

func TestEvaluate_EmptyLayoutDegradesGracefully(t *testing.T) {
	res := Evaluate(Input{}, config.Default().VMD)

	subs := res.Score.SubScores
	if !approx(subs[PrincipleGoldenZone], 100) || !approx(subs[PrincipleBreathingRoom], 100) {
		t.Fatalf("empty layout should not penalize slot principles: %+v", subs)
	}
	if !approx(subs[PrincipleVisualFlow], 50) || !approx(subs[PrincipleFocalPoint], 50) {
		t.Fatalf("missing signals should score neutral: %+v", subs)
	}
	if !approx(subs[PrincipleCrossMerch], 70) {
		t.Fatalf("no placements should score 70: %+v", subs)
	}
	if !approx(res.Score.Overall, 78) || res.Score.Grade != "C" {
		t.Fatalf("expected overall 78 grade C, got %v %q", res.Score.Overall, res.Score.Grade)
	}
	if !hasViolation(res, PrincipleVisualFlow) {
		t.Fatalf("expected the no-paths visual flow violation")
	}
	if hasViolation(res, PrincipleFocalPoint) {
		t.Fatalf("no anchor zones means no focal point violation")
	}
}

func TestEvaluate_GoldenZoneMisplacement(t *testing.T) {
	p := &domain.Product{ID: uuid.New(), Name: "serum", Category: "beauty", Price: 40, Cost: 10}
	f := &domain.Furniture{ID: uuid.New(), ZoneID: uuid.New(), Type: "shelf", Movable: true}
	pid := p.ID
	low := &domain.ShelfSlot{ID: uuid.New(), FurnitureID: f.ID, SlotIndex: 0, Band: "stoop", ProductID: &pid}

	in := Input{
		Furniture: []*domain.Furniture{f},
		Products:  map[uuid.UUID]*domain.Product{p.ID: p},
		Slots:     []*domain.ShelfSlot{low},
		Performance: map[uuid.UUID]*domain.ProductPerformance{
			p.ID: {ProductID: p.ID, Revenue: 500, Units: 20},
		},
	}
	res := Evaluate(in, config.Default().VMD)

	if !approx(res.Score.SubScores[PrincipleGoldenZone], 0) {
		t.Fatalf("top product in the stoop band must score 0, got %v", res.Score.SubScores[PrincipleGoldenZone])
	}
	if !hasViolation(res, PrincipleGoldenZone) {
		t.Fatalf("expected a golden zone violation")
	}

	// Move it into the eye band and the violation disappears.
	low.Band = "eye"
	res = Evaluate(in, config.Default().VMD)
	if !approx(res.Score.SubScores[PrincipleGoldenZone], 100) {
		t.Fatalf("eye-band placement must score 100, got %v", res.Score.SubScores[PrincipleGoldenZone])
	}
	if hasViolation(res, PrincipleGoldenZone) {
		t.Fatalf("unexpected golden zone violation after the fix")
	}
}

func TestEvaluate_FocalPointAtEntrance(t *testing.T) {
	entry := &domain.Zone{ID: uuid.New(), Name: "Entry", Type: "entrance"}
	shelf := &domain.Furniture{ID: uuid.New(), ZoneID: entry.ID, Type: "shelf"}

	in := Input{Zones: []*domain.Zone{entry}, Furniture: []*domain.Furniture{shelf}}
	res := Evaluate(in, config.Default().VMD)
	if !approx(res.Score.SubScores[PrincipleFocalPoint], 55) {
		t.Fatalf("shelf-only entrance should score 55, got %v", res.Score.SubScores[PrincipleFocalPoint])
	}
	if !hasViolation(res, PrincipleFocalPoint) {
		t.Fatalf("expected a focal point violation")
	}

	table := &domain.Furniture{ID: uuid.New(), ZoneID: entry.ID, Type: "table"}
	in.Furniture = append(in.Furniture, table)
	res = Evaluate(in, config.Default().VMD)
	if !approx(res.Score.SubScores[PrincipleFocalPoint], 100) {
		t.Fatalf("a display table at the door should score 100, got %v", res.Score.SubScores[PrincipleFocalPoint])
	}
}

func TestEvaluate_BreathingRoomOvercrowding(t *testing.T) {
	f := &domain.Furniture{ID: uuid.New(), ZoneID: uuid.New(), Type: "shelf"}
	products := map[uuid.UUID]*domain.Product{}
	var slots []*domain.ShelfSlot
	for i := 0; i < 10; i++ {
		p := &domain.Product{ID: uuid.New(), Name: "sku", Category: "general", Price: 5}
		products[p.ID] = p
		pid := p.ID
		slots = append(slots, &domain.ShelfSlot{ID: uuid.New(), FurnitureID: f.ID, SlotIndex: i, Band: "reach", ProductID: &pid})
	}

	in := Input{Furniture: []*domain.Furniture{f}, Products: products, Slots: slots}
	res := Evaluate(in, config.Default().VMD)
	if !approx(res.Score.SubScores[PrincipleBreathingRoom], 0) {
		t.Fatalf("fully stuffed fixture must score 0, got %v", res.Score.SubScores[PrincipleBreathingRoom])
	}
	if !hasViolation(res, PrincipleBreathingRoom) {
		t.Fatalf("expected a breathing room violation")
	}

	// Freeing two slots brings occupancy under the ceiling.
	slots[0].ProductID = nil
	slots[1].ProductID = nil
	res = Evaluate(in, config.Default().VMD)
	if !approx(res.Score.SubScores[PrincipleBreathingRoom], 100) {
		t.Fatalf("80%% occupancy should score 100, got %v", res.Score.SubScores[PrincipleBreathingRoom])
	}
}
