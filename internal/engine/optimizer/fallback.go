package optimizer

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/vmd"
)

// ruleFallback is the deterministic heuristic generator. It produces a
// smaller, lower-confidence change set straight from the analyses so the
// pipeline always returns something usable. Given identical snapshots it
// produces identical output. The scope restricts subjects and target zones
// to the sets the caller named.
func (s *Service) ruleFallback(sc scope, snap *Snapshot, an *analysis) *reasonedChanges {
	out := &reasonedChanges{}
	out.Furniture = s.fallbackFurniture(sc, snap, an)
	out.Product = s.fallbackProducts(sc, snap, an)
	return out
}

// fallbackFurniture moves movable display fixtures from busy zones toward
// flow opportunities, and anchors the entrance when the VMD audit flagged a
// missing focal point.
func (s *Service) fallbackFurniture(sc scope, snap *Snapshot, an *analysis) []Change {
	var changes []Change

	zoneByID := map[uuid.UUID]*domain.Zone{}
	for _, z := range snap.Zones {
		zoneByID[z.ID] = z
	}

	// Movable display candidates, busiest zone first so the move costs the
	// least exposure.
	candidates := make([]*domain.Furniture, 0, len(snap.Furniture))
	for _, f := range snap.Furniture {
		if f.Movable && sc.allowFurniture(f.ID) {
			candidates = append(candidates, f)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := an.TrafficShare[candidates[i].ZoneID], an.TrafficShare[candidates[j].ZoneID]
		if si != sj {
			return si > sj
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	used := map[uuid.UUID]bool{}
	take := func(excludeZone uuid.UUID, types ...string) *domain.Furniture {
		wanted := map[string]bool{}
		for _, t := range types {
			wanted[t] = true
		}
		for _, f := range candidates {
			if used[f.ID] || f.ZoneID == excludeZone {
				continue
			}
			if len(wanted) > 0 && !wanted[f.Type] {
				continue
			}
			used[f.ID] = true
			return f
		}
		return nil
	}

	for _, opp := range an.Flow.Opportunities {
		if !sc.allowZone(opp.ZoneID) {
			continue
		}
		f := take(opp.ZoneID, "endcap", "table", "rack")
		if f == nil {
			f = take(opp.ZoneID)
		}
		if f == nil {
			break
		}
		target := zoneByID[opp.ZoneID]
		if target == nil {
			continue
		}
		changes = append(changes, Change{
			ChangeType: domain.ChangeTypeFurniture,
			SubjectID:  f.ID,
			Current:    map[string]any{"zone_id": f.ZoneID.String()},
			Suggested:  map[string]any{"zone_id": target.ID.String()},
			Reason:     fmt.Sprintf("%s; relocating a %s there gives customers a reason to enter", opp.Description, f.Type),
			Priority:   opp.Priority,
			Metric:     "revenue",
		})
	}

	if missingFocalPoint(an.VMD) {
		for _, z := range snap.Zones {
			if !z.IsEntrance() || !sc.allowZone(z.ID) {
				continue
			}
			if f := take(z.ID, "table", "endcap"); f != nil {
				changes = append(changes, Change{
					ChangeType: domain.ChangeTypeFurniture,
					SubjectID:  f.ID,
					Current:    map[string]any{"zone_id": f.ZoneID.String()},
					Suggested:  map[string]any{"zone_id": z.ID.String()},
					Reason:     "entrance lacks a focal display; a feature table at the door lifts first impressions",
					Priority:   domain.PriorityMedium,
					Metric:     "conversion",
				})
			}
			break
		}
	}
	return changes
}

// fallbackProducts satisfies the strongest unmet association placements by
// moving the partner product onto a free slot beside its anchor, preferring
// the golden band.
func (s *Service) fallbackProducts(sc scope, snap *Snapshot, an *analysis) []Change {
	var changes []Change

	furnitureZone := map[uuid.UUID]uuid.UUID{}
	checkoutZones := map[uuid.UUID]bool{}
	for _, z := range snap.Zones {
		if z.IsCheckout() {
			checkoutZones[z.ID] = true
		}
	}
	for _, f := range snap.Furniture {
		furnitureZone[f.ID] = f.ZoneID
	}

	slotOfProduct := map[uuid.UUID]*domain.ShelfSlot{}
	freeByFurniture := map[uuid.UUID][]*domain.ShelfSlot{}
	var checkoutFree []*domain.ShelfSlot
	for _, slot := range snap.Slots {
		if slot.ProductID != nil {
			slotOfProduct[*slot.ProductID] = slot
			continue
		}
		freeByFurniture[slot.FurnitureID] = append(freeByFurniture[slot.FurnitureID], slot)
		if zid := furnitureZone[slot.FurnitureID]; checkoutZones[zid] && sc.allowZone(zid) {
			checkoutFree = append(checkoutFree, slot)
		}
	}
	for _, slots := range freeByFurniture {
		sortSlots(slots)
	}
	sortSlots(checkoutFree)

	claimed := map[uuid.UUID]bool{}
	claim := func(slots []*domain.ShelfSlot) *domain.ShelfSlot {
		for _, sl := range slots {
			if !claimed[sl.ID] {
				claimed[sl.ID] = true
				return sl
			}
		}
		return nil
	}
	moved := map[uuid.UUID]bool{}

	for _, p := range an.Assoc.Placements {
		if moved[p.PartnerID] || !sc.allowProduct(p.PartnerID) {
			continue
		}
		anchorSlot := slotOfProduct[p.AnchorID]
		partnerSlot := slotOfProduct[p.PartnerID]
		if anchorSlot == nil || partnerSlot == nil {
			continue
		}

		var target *domain.ShelfSlot
		reason := p.Reason
		switch p.Kind {
		case "impulse":
			if checkoutZones[furnitureZone[partnerSlot.FurnitureID]] {
				continue
			}
			target = claim(checkoutFree)
		case "bundle", "cross_sell", "upsell":
			if partnerSlot.FurnitureID == anchorSlot.FurnitureID {
				continue
			}
			if !sc.allowZone(furnitureZone[anchorSlot.FurnitureID]) {
				continue
			}
			target = claim(freeByFurniture[anchorSlot.FurnitureID])
		}
		if target == nil {
			continue
		}
		moved[p.PartnerID] = true
		changes = append(changes, Change{
			ChangeType: domain.ChangeTypeProduct,
			SubjectID:  p.PartnerID,
			Current: map[string]any{
				"slot_id":      partnerSlot.ID.String(),
				"furniture_id": partnerSlot.FurnitureID.String(),
			},
			Suggested: map[string]any{
				"slot_id":      target.ID.String(),
				"furniture_id": target.FurnitureID.String(),
			},
			Reason:   reason,
			Priority: domain.PriorityMedium,
			Metric:   "revenue",
		})
	}
	return changes
}

// sortSlots orders free slots golden band first, then by slot index and ID so
// claims are deterministic.
func sortSlots(slots []*domain.ShelfSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		gi, gj := slots[i].GoldenBand(), slots[j].GoldenBand()
		if gi != gj {
			return gi
		}
		if slots[i].SlotIndex != slots[j].SlotIndex {
			return slots[i].SlotIndex < slots[j].SlotIndex
		}
		return slots[i].ID.String() < slots[j].ID.String()
	})
}

func missingFocalPoint(res *vmd.Result) bool {
	if res == nil {
		return false
	}
	for _, v := range res.Violations {
		if v.Principle == vmd.PrincipleFocalPoint {
			return true
		}
	}
	return false
}
