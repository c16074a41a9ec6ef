package optimizer

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
)

// buildStaffing assigns available staff to the zones that need coverage most:
// congested bottlenecks first, then the entrance, then the busiest remaining
// zones. Deterministic for a given snapshot.
func (s *Service) buildStaffing(req Request, snap *Snapshot, an *analysis) *StaffingResult {
	res := &StaffingResult{}
	if len(snap.Staff) == 0 {
		res.Summary = "no staff on roster; staffing skipped"
		return res
	}

	staff := make([]*domain.StaffMember, len(snap.Staff))
	copy(staff, snap.Staff)
	sort.SliceStable(staff, func(i, j int) bool {
		return staff[i].ID.String() < staff[j].ID.String()
	})

	limit := req.Params.StaffCount
	if limit <= 0 || limit > len(staff) {
		limit = len(staff)
	}

	zoneByID := map[uuid.UUID]*domain.Zone{}
	for _, z := range snap.Zones {
		zoneByID[z.ID] = z
	}

	type need struct {
		zoneID uuid.UUID
		reason string
	}
	var needs []need
	seen := map[uuid.UUID]bool{}
	push := func(zoneID uuid.UUID, reason string) {
		if seen[zoneID] || zoneByID[zoneID] == nil {
			return
		}
		seen[zoneID] = true
		needs = append(needs, need{zoneID: zoneID, reason: reason})
	}

	for _, b := range an.Flow.Bottlenecks {
		push(b.ZoneID, fmt.Sprintf("%s congestion in %s needs a dedicated associate", b.Severity, b.ZoneName))
	}
	if req.Params.StaffingGoal != "coverage" {
		for _, z := range snap.Zones {
			if z.IsEntrance() {
				push(z.ID, "greeting at the entrance lifts engagement and deters shrink")
			}
		}
	}

	// Remaining capacity goes to the busiest uncovered zones.
	rest := make([]*domain.Zone, 0, len(snap.Zones))
	for _, z := range snap.Zones {
		if !seen[z.ID] {
			rest = append(rest, z)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		si, sj := an.TrafficShare[rest[i].ID], an.TrafficShare[rest[j].ID]
		if si != sj {
			return si > sj
		}
		return rest[i].ID.String() < rest[j].ID.String()
	})
	for _, z := range rest {
		push(z.ID, fmt.Sprintf("%s carries above-average traffic and benefits from active service", z.Name))
	}

	for i, n := range needs {
		if i >= limit || i >= len(staff) {
			break
		}
		m := staff[i]
		res.Assignments = append(res.Assignments, StaffAssignment{
			StaffID:   m.ID,
			StaffName: m.Name,
			Role:      m.Role,
			ZoneID:    n.zoneID,
			ZoneName:  zoneByID[n.zoneID].Name,
			Reason:    n.reason,
		})
	}

	if len(res.Assignments) == 0 {
		res.Summary = "no zones required additional coverage"
		return res
	}
	res.Summary = fmt.Sprintf("%d of %d staff repositioned; %d bottleneck zone(s) covered",
		len(res.Assignments), len(staff), len(an.Flow.Bottlenecks))
	return res
}
