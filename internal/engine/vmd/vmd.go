package vmd

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/assoc"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
	"github.com/storelytic/storetwin-backend/internal/engine/flow"
)

type Input struct {
	Zones       []*domain.Zone
	Furniture   []*domain.Furniture
	Products    map[uuid.UUID]*domain.Product
	Slots       []*domain.ShelfSlot
	Flow        *flow.Result
	Assoc       *assoc.Result
	Performance map[uuid.UUID]*domain.ProductPerformance
}

type Score struct {
	Overall   float64            `json:"overall"`
	Grade     string             `json:"grade"`
	SubScores map[string]float64 `json:"sub_scores"`
}

type Violation struct {
	Principle   string     `json:"principle"`
	ZoneID      *uuid.UUID `json:"zone_id,omitempty"`
	FurnitureID *uuid.UUID `json:"furniture_id,omitempty"`
	Severity    string     `json:"severity"`
	Description string     `json:"description"`
}

type Result struct {
	Score      Score       `json:"score"`
	Violations []Violation `json:"violations"`
}

const (
	PrincipleGoldenZone    = "golden_zone"
	PrincipleColorBlocking = "color_blocking"
	PrincipleVisualFlow    = "visual_flow"
	PrincipleFocalPoint    = "focal_point"
	PrincipleBreathingRoom = "breathing_room"
	PrincipleCrossMerch    = "cross_merchandising"
)

// Evaluate scores the layout against the six merchandising principles. Each
// sub-score is 0-100; the overall score is the configured weighted average.
func Evaluate(in Input, cfg config.VMDConfig) *Result {
	res := &Result{Score: Score{SubScores: map[string]float64{}}}

	furnitureByID := make(map[uuid.UUID]*domain.Furniture, len(in.Furniture))
	for _, f := range in.Furniture {
		furnitureByID[f.ID] = f
	}
	slotsByFurniture := map[uuid.UUID][]*domain.ShelfSlot{}
	for _, s := range in.Slots {
		slotsByFurniture[s.FurnitureID] = append(slotsByFurniture[s.FurnitureID], s)
	}

	type scored struct {
		name   string
		weight float64
		score  float64
		viols  []Violation
	}
	evals := []scored{}

	score, viols := goldenZone(in, cfg)
	evals = append(evals, scored{PrincipleGoldenZone, cfg.GoldenZoneWeight, score, viols})

	score, viols = colorBlocking(in, slotsByFurniture, cfg)
	evals = append(evals, scored{PrincipleColorBlocking, cfg.ColorBlockingWeight, score, viols})

	score, viols = visualFlow(in, furnitureByID, cfg)
	evals = append(evals, scored{PrincipleVisualFlow, cfg.VisualFlowWeight, score, viols})

	score, viols = focalPoint(in, cfg)
	evals = append(evals, scored{PrincipleFocalPoint, cfg.FocalPointWeight, score, viols})

	score, viols = breathingRoom(in, slotsByFurniture, cfg)
	evals = append(evals, scored{PrincipleBreathingRoom, cfg.BreathingRoomWeight, score, viols})

	score, viols = crossMerchandising(in, furnitureByID, cfg)
	evals = append(evals, scored{PrincipleCrossMerch, cfg.CrossMerchWeight, score, viols})

	totalWeight := 0.0
	weighted := 0.0
	for _, e := range evals {
		res.Score.SubScores[e.name] = e.score
		weighted += e.score * e.weight
		totalWeight += e.weight
		if e.score < cfg.PassScore {
			res.Violations = append(res.Violations, e.viols...)
		}
	}
	if totalWeight > 0 {
		res.Score.Overall = weighted / totalWeight
	}
	res.Score.Grade = grade(res.Score.Overall)
	return res
}

func grade(overall float64) string {
	switch {
	case overall >= 90:
		return "A"
	case overall >= 80:
		return "B"
	case overall >= 70:
		return "C"
	case overall >= 60:
		return "D"
	default:
		return "F"
	}
}

func severityFor(score, pass float64) string {
	switch {
	case score < pass*0.5:
		return "high"
	case score < pass*0.8:
		return "medium"
	default:
		return "low"
	}
}

// goldenZone: are the store's high-margin, high-velocity products placed in
// the eye-to-hip band.
func goldenZone(in Input, cfg config.VMDConfig) (float64, []Violation) {
	type ranked struct {
		id    uuid.UUID
		value float64
	}
	var top []ranked
	for id, p := range in.Products {
		perf := in.Performance[id]
		rev := 0.0
		if perf != nil {
			rev = perf.Revenue
		}
		v := rev * (0.5 + p.Margin())
		if v > 0 {
			top = append(top, ranked{id, v})
		}
	}
	if len(top) == 0 {
		return 100, nil
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].value != top[j].value {
			return top[i].value > top[j].value
		}
		return top[i].id.String() < top[j].id.String()
	})
	n := len(top) / 4
	if n < 3 {
		n = min(3, len(top))
	}
	top = top[:n]

	placed := map[uuid.UUID]bool{}
	for _, s := range in.Slots {
		if s.ProductID != nil && s.GoldenBand() {
			placed[*s.ProductID] = true
		}
	}

	hits := 0
	for _, r := range top {
		if placed[r.id] {
			hits++
		}
	}
	score := 100 * float64(hits) / float64(len(top))
	var viols []Violation
	if score < cfg.PassScore {
		viols = append(viols, Violation{
			Principle:   PrincipleGoldenZone,
			Severity:    severityFor(score, cfg.PassScore),
			Description: fmt.Sprintf("only %d of the top %d margin-velocity products sit in the eye-to-hip band", hits, len(top)),
		})
	}
	return score, viols
}

// colorBlocking approximates visual grouping via category contiguity on
// shared furniture.
func colorBlocking(in Input, slotsByFurniture map[uuid.UUID][]*domain.ShelfSlot, cfg config.VMDConfig) (float64, []Violation) {
	var shares []float64
	var viols []Violation
	ids := sortedFurnitureIDs(slotsByFurniture)
	for _, fid := range ids {
		slots := slotsByFurniture[fid]
		counts := map[string]int{}
		occupied := 0
		for _, s := range slots {
			if s.ProductID == nil {
				continue
			}
			p, ok := in.Products[*s.ProductID]
			if !ok {
				continue
			}
			counts[p.Category]++
			occupied++
		}
		if occupied < 2 {
			continue
		}
		dominant := 0
		for _, c := range counts {
			if c > dominant {
				dominant = c
			}
		}
		share := float64(dominant) / float64(occupied)
		shares = append(shares, share)
		if share < 0.5 {
			f := fid
			viols = append(viols, Violation{
				Principle:   PrincipleColorBlocking,
				FurnitureID: &f,
				Severity:    "medium",
				Description: fmt.Sprintf("fixture mixes %d categories with no dominant block", len(counts)),
			})
		}
	}
	if len(shares) == 0 {
		return 100, nil
	}
	sum := 0.0
	for _, s := range shares {
		sum += s
	}
	score := 100 * sum / float64(len(shares))
	if score >= cfg.PassScore {
		viols = nil
	}
	return score, viols
}

// visualFlow: do high-priority items sit along the dominant key paths.
func visualFlow(in Input, furnitureByID map[uuid.UUID]*domain.Furniture, cfg config.VMDConfig) (float64, []Violation) {
	if in.Flow == nil || len(in.Flow.KeyPaths) == 0 {
		return 50, []Violation{{
			Principle:   PrincipleVisualFlow,
			Severity:    "low",
			Description: "no dominant customer paths available to evaluate placement against",
		}}
	}
	onPath := map[uuid.UUID]bool{}
	for _, p := range in.Flow.KeyPaths {
		for _, zid := range p.ZoneIDs {
			onPath[zid] = true
		}
	}

	type ranked struct {
		id      uuid.UUID
		revenue float64
	}
	var top []ranked
	for id, perf := range in.Performance {
		if perf.Revenue > 0 {
			top = append(top, ranked{id, perf.Revenue})
		}
	}
	if len(top) == 0 {
		return 50, nil
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].revenue != top[j].revenue {
			return top[i].revenue > top[j].revenue
		}
		return top[i].id.String() < top[j].id.String()
	})
	if len(top) > 10 {
		top = top[:10]
	}

	zoneOf := map[uuid.UUID]uuid.UUID{}
	for _, s := range in.Slots {
		if s.ProductID == nil {
			continue
		}
		if f, ok := furnitureByID[s.FurnitureID]; ok {
			zoneOf[*s.ProductID] = f.ZoneID
		}
	}

	hits := 0
	for _, r := range top {
		if zid, ok := zoneOf[r.id]; ok && onPath[zid] {
			hits++
		}
	}
	score := 100 * float64(hits) / float64(len(top))
	var viols []Violation
	if score < cfg.PassScore {
		viols = append(viols, Violation{
			Principle:   PrincipleVisualFlow,
			Severity:    severityFor(score, cfg.PassScore),
			Description: fmt.Sprintf("%d of the top %d revenue products sit off the dominant customer paths", len(top)-hits, len(top)),
		})
	}
	return score, viols
}

// focalPoint: at least one high-impact display near the entrance or the head
// of a key path.
func focalPoint(in Input, cfg config.VMDConfig) (float64, []Violation) {
	anchor := map[uuid.UUID]bool{}
	for _, z := range in.Zones {
		if z.IsEntrance() {
			anchor[z.ID] = true
		}
	}
	if in.Flow != nil {
		for _, p := range in.Flow.KeyPaths {
			if len(p.ZoneIDs) > 0 {
				anchor[p.ZoneIDs[0]] = true
			}
		}
	}
	if len(anchor) == 0 {
		return 50, nil
	}

	display := false
	anyFixture := false
	for _, f := range in.Furniture {
		if !anchor[f.ZoneID] {
			continue
		}
		anyFixture = true
		if f.Type == "endcap" || f.Type == "table" {
			display = true
			break
		}
	}

	switch {
	case display:
		return 100, nil
	case anyFixture:
		return 55, []Violation{{
			Principle:   PrincipleFocalPoint,
			Severity:    "low",
			Description: "entrance area has fixtures but no dedicated display table or endcap",
		}}
	default:
		return 20, []Violation{{
			Principle:   PrincipleFocalPoint,
			Severity:    "high",
			Description: "no focal display anywhere near the entrance or path heads",
		}}
	}
}

// breathingRoom penalizes fixtures stuffed past the configured occupancy.
func breathingRoom(in Input, slotsByFurniture map[uuid.UUID][]*domain.ShelfSlot, cfg config.VMDConfig) (float64, []Violation) {
	var viols []Violation
	crowded := 0
	fixtures := 0
	ids := sortedFurnitureIDs(slotsByFurniture)
	for _, fid := range ids {
		slots := slotsByFurniture[fid]
		if len(slots) == 0 {
			continue
		}
		fixtures++
		occupied := 0
		for _, s := range slots {
			if s.ProductID != nil {
				occupied++
			}
		}
		occ := float64(occupied) / float64(len(slots))
		if occ > cfg.MaxSlotOccupancy {
			crowded++
			f := fid
			viols = append(viols, Violation{
				Principle:   PrincipleBreathingRoom,
				FurnitureID: &f,
				Severity:    "medium",
				Description: fmt.Sprintf("fixture at %.0f%% slot occupancy, above the %.0f%% ceiling", occ*100, cfg.MaxSlotOccupancy*100),
			})
		}
	}
	if fixtures == 0 {
		return 100, nil
	}
	score := 100 * (1 - float64(crowded)/float64(fixtures))
	if score >= cfg.PassScore {
		viols = nil
	}
	return score, viols
}

// crossMerchandising: are mined association pairs physically adjacent.
func crossMerchandising(in Input, furnitureByID map[uuid.UUID]*domain.Furniture, cfg config.VMDConfig) (float64, []Violation) {
	if in.Assoc == nil || len(in.Assoc.Placements) == 0 {
		return 70, nil
	}
	zoneByID := map[uuid.UUID]*domain.Zone{}
	for _, z := range in.Zones {
		zoneByID[z.ID] = z
	}
	locate := func(pid uuid.UUID) (uuid.UUID, uuid.UUID, bool) {
		for _, s := range in.Slots {
			if s.ProductID != nil && *s.ProductID == pid {
				f, ok := furnitureByID[s.FurnitureID]
				if !ok {
					return uuid.Nil, uuid.Nil, false
				}
				return s.FurnitureID, f.ZoneID, true
			}
		}
		return uuid.Nil, uuid.Nil, false
	}

	considered := 0
	adjacent := 0
	for _, p := range in.Assoc.Placements {
		if p.Kind != "bundle" && p.Kind != "cross_sell" {
			continue
		}
		fa, za, okA := locate(p.AnchorID)
		fb, zb, okB := locate(p.PartnerID)
		if !okA || !okB {
			continue
		}
		considered++
		if fa == fb || za == zb || zoneByID[za].Adjacent(zoneByID[zb]) {
			adjacent++
		}
		if considered >= 10 {
			break
		}
	}
	if considered == 0 {
		return 70, nil
	}
	score := 100 * float64(adjacent) / float64(considered)
	var viols []Violation
	if score < cfg.PassScore {
		viols = append(viols, Violation{
			Principle:   PrincipleCrossMerch,
			Severity:    severityFor(score, cfg.PassScore),
			Description: fmt.Sprintf("%d of %d strongest co-purchase pairs are shelved apart", considered-adjacent, considered),
		})
	}
	return score, viols
}

func sortedFurnitureIDs(m map[uuid.UUID][]*domain.ShelfSlot) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
