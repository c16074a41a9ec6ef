package flow

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
)

type Input struct {
	Zones       []*domain.Zone
	Transitions []*domain.ZoneTransition
	Visits      []*domain.VisitRecord
	Window      time.Duration
}

type Result struct {
	Summary       Summary       `json:"summary"`
	KeyPaths      []KeyPath     `json:"key_paths"`
	Bottlenecks   []Bottleneck  `json:"bottlenecks"`
	DeadZones     []DeadZone    `json:"dead_zones"`
	Opportunities []Opportunity `json:"opportunities"`
}

type Summary struct {
	HealthScore      float64 `json:"health_score"`
	DataQuality      string  `json:"data_quality"` // ok | low
	TotalTransitions int     `json:"total_transitions"`
	ZonesCovered     int     `json:"zones_covered"`
}

type KeyPath struct {
	ZoneIDs   []uuid.UUID `json:"zone_ids"`
	ZoneNames []string    `json:"zone_names"`
	Count     int         `json:"count"` // weakest edge along the chain
	Kind      string      `json:"kind"`  // entry_exit | entry_purchase | loop
}

type Bottleneck struct {
	ZoneID          uuid.UUID `json:"zone_id"`
	ZoneName        string    `json:"zone_name"`
	IncomingPerHour float64   `json:"incoming_per_hour"`
	Capacity        int       `json:"capacity"`
	CongestionScore float64   `json:"congestion_score"`
	Severity        string    `json:"severity"` // high | medium | low
}

type DeadZone struct {
	ZoneID     uuid.UUID `json:"zone_id"`
	ZoneName   string    `json:"zone_name"`
	VisitShare float64   `json:"visit_share"` // fraction of the store average
	Severity   string    `json:"severity"`
}

type Opportunity struct {
	ZoneID      uuid.UUID `json:"zone_id"`
	Kind        string    `json:"kind"` // redirect_traffic | activate_zone
	Priority    string    `json:"priority"`
	Description string    `json:"description"`
}

// Analyze builds the customer-flow graph and derives key paths, bottlenecks,
// dead zones and opportunities. It never fails: sparse input degrades to a
// neutral health score with a low data-quality flag.
func Analyze(in Input, cfg config.FlowConfig) *Result {
	res := &Result{}

	zoneByID := make(map[uuid.UUID]*domain.Zone, len(in.Zones))
	for _, z := range in.Zones {
		zoneByID[z.ID] = z
	}

	edges, total := buildEdges(in.Transitions, zoneByID)
	res.Summary.TotalTransitions = total
	res.Summary.ZonesCovered = len(zoneByID)

	if total == 0 || len(zoneByID) == 0 {
		res.Summary.HealthScore = 50
		res.Summary.DataQuality = "low"
		return res
	}
	res.Summary.DataQuality = "ok"

	hours := in.Window.Hours()
	if hours <= 0 {
		hours = 1
	}

	res.KeyPaths = keyPaths(edges, zoneByID, cfg)
	res.Bottlenecks = bottlenecks(edges, zoneByID, hours, cfg)
	res.DeadZones = deadZones(in, edges, zoneByID, cfg)
	res.Opportunities = opportunities(res, zoneByID, edges)
	res.Summary.HealthScore = healthScore(res)
	return res
}

// buildEdges aggregates transition rows into directed edge weights, dropping
// self-transitions and edges that reference unknown zones.
func buildEdges(transitions []*domain.ZoneTransition, zones map[uuid.UUID]*domain.Zone) (map[uuid.UUID]map[uuid.UUID]int, int) {
	edges := make(map[uuid.UUID]map[uuid.UUID]int)
	total := 0
	for _, t := range transitions {
		if t.FromZoneID == t.ToZoneID {
			continue
		}
		if _, ok := zones[t.FromZoneID]; !ok {
			continue
		}
		if _, ok := zones[t.ToZoneID]; !ok {
			continue
		}
		if edges[t.FromZoneID] == nil {
			edges[t.FromZoneID] = make(map[uuid.UUID]int)
		}
		edges[t.FromZoneID][t.ToZoneID] += t.Count
		total += t.Count
	}
	return edges, total
}

// keyPaths greedily extends the strongest outgoing edge from every entrance
// zone (or from the busiest zones when the floor plan has no entrance),
// without revisiting, and keeps the top-N chains by weakest-edge frequency.
func keyPaths(edges map[uuid.UUID]map[uuid.UUID]int, zones map[uuid.UUID]*domain.Zone, cfg config.FlowConfig) []KeyPath {
	starts := entryZones(zones)
	if len(starts) == 0 {
		starts = busiestZones(edges, 2)
	}

	var paths []KeyPath
	for _, start := range starts {
		chain := []uuid.UUID{start}
		seen := map[uuid.UUID]bool{start: true}
		weakest := 0
		cur := start
		for len(chain) < cfg.MaxPathLength {
			next, count := strongestEdge(edges[cur], seen)
			if count == 0 {
				// allow closing a loop back to the start
				if c, ok := edges[cur][start]; ok && len(chain) > 2 {
					chain = append(chain, start)
					if weakest == 0 || c < weakest {
						weakest = c
					}
				}
				break
			}
			chain = append(chain, next)
			seen[next] = true
			if weakest == 0 || count < weakest {
				weakest = count
			}
			cur = next
		}
		if len(chain) < 2 {
			continue
		}
		paths = append(paths, KeyPath{
			ZoneIDs:   chain,
			ZoneNames: zoneNames(chain, zones),
			Count:     weakest,
			Kind:      classifyPath(chain, zones),
		})
	}

	sort.SliceStable(paths, func(i, j int) bool { return paths[i].Count > paths[j].Count })
	if len(paths) > cfg.TopPaths {
		paths = paths[:cfg.TopPaths]
	}
	return paths
}

func classifyPath(chain []uuid.UUID, zones map[uuid.UUID]*domain.Zone) string {
	if len(chain) == 0 {
		return "entry_exit"
	}
	if chain[0] == chain[len(chain)-1] {
		return "loop"
	}
	if z, ok := zones[chain[len(chain)-1]]; ok && z.IsCheckout() {
		return "entry_purchase"
	}
	return "entry_exit"
}

func bottlenecks(edges map[uuid.UUID]map[uuid.UUID]int, zones map[uuid.UUID]*domain.Zone, hours float64, cfg config.FlowConfig) []Bottleneck {
	incoming := make(map[uuid.UUID]int)
	for _, outs := range edges {
		for to, c := range outs {
			incoming[to] += c
		}
	}

	var out []Bottleneck
	for id, count := range incoming {
		z := zones[id]
		capacity := z.DwellCapacity
		if capacity <= 0 {
			capacity = cfg.DefaultDwellCapacity
		}
		rate := float64(count) / hours
		ratio := rate / float64(capacity)
		if ratio < cfg.CongestionRatio {
			continue
		}
		severity := "low"
		switch {
		case ratio >= cfg.HighCongestionRatio:
			severity = "high"
		case ratio >= (cfg.CongestionRatio+cfg.HighCongestionRatio)/2:
			severity = "medium"
		}
		out = append(out, Bottleneck{
			ZoneID:          id,
			ZoneName:        z.Name,
			IncomingPerHour: rate,
			Capacity:        capacity,
			CongestionScore: ratio,
			Severity:        severity,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CongestionScore > out[j].CongestionScore })
	return out
}

// deadZones ranks zones whose visit rate falls below the configured share of
// the store average. Visit records are preferred; incoming transitions stand
// in when none exist.
func deadZones(in Input, edges map[uuid.UUID]map[uuid.UUID]int, zones map[uuid.UUID]*domain.Zone, cfg config.FlowConfig) []DeadZone {
	visits := make(map[uuid.UUID]int)
	if len(in.Visits) > 0 {
		for _, v := range in.Visits {
			visits[v.ZoneID]++
		}
	} else {
		for _, outs := range edges {
			for to, c := range outs {
				visits[to] += c
			}
		}
	}

	totalVisits := 0
	counted := 0
	for _, z := range zones {
		if z.Type == "storage" {
			continue
		}
		totalVisits += visits[z.ID]
		counted++
	}
	if counted == 0 || totalVisits == 0 {
		return nil
	}
	avg := float64(totalVisits) / float64(counted)

	var out []DeadZone
	for _, z := range zones {
		if z.Type == "storage" || z.IsEntrance() || z.IsCheckout() {
			continue
		}
		share := float64(visits[z.ID]) / avg
		if share >= cfg.DeadZoneShare {
			continue
		}
		severity := "medium"
		if share < cfg.SevereDeadShare {
			severity = "high"
		} else if share >= cfg.DeadZoneShare*0.75 {
			severity = "low"
		}
		out = append(out, DeadZone{ZoneID: z.ID, ZoneName: z.Name, VisitShare: share, Severity: severity})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitShare < out[j].VisitShare })
	return out
}

// opportunities finds structural gaps: a busy zone bordering a dead zone is a
// redirect candidate, and any severe dead zone is an activation candidate.
func opportunities(res *Result, zones map[uuid.UUID]*domain.Zone, edges map[uuid.UUID]map[uuid.UUID]int) []Opportunity {
	incoming := make(map[uuid.UUID]int)
	for _, outs := range edges {
		for to, c := range outs {
			incoming[to] += c
		}
	}

	dead := make(map[uuid.UUID]DeadZone, len(res.DeadZones))
	for _, d := range res.DeadZones {
		dead[d.ZoneID] = d
	}

	var out []Opportunity
	for _, d := range res.DeadZones {
		dz := zones[d.ZoneID]
		bestNeighbor := ""
		for _, z := range zones {
			if _, isDead := dead[z.ID]; isDead {
				continue
			}
			if !dz.Adjacent(z) || incoming[z.ID] == 0 {
				continue
			}
			if bestNeighbor == "" || incoming[z.ID] > 0 {
				bestNeighbor = z.Name
			}
		}
		if bestNeighbor != "" {
			out = append(out, Opportunity{
				ZoneID:      d.ZoneID,
				Kind:        "redirect_traffic",
				Priority:    d.Severity,
				Description: fmt.Sprintf("%s is undervisited next to busy %s; reroute flow or add a draw display", dz.Name, bestNeighbor),
			})
			continue
		}
		if d.Severity == "high" {
			out = append(out, Opportunity{
				ZoneID:      d.ZoneID,
				Kind:        "activate_zone",
				Priority:    "high",
				Description: fmt.Sprintf("%s receives almost no traffic; anchor it with a focal display", dz.Name),
			})
		}
	}
	return out
}

// healthScore composes a 0-100 score that decreases monotonically with
// bottleneck and dead-zone severity.
func healthScore(res *Result) float64 {
	score := 100.0
	for _, b := range res.Bottlenecks {
		switch b.Severity {
		case "high":
			score -= 15
		case "medium":
			score -= 8
		default:
			score -= 4
		}
	}
	for _, d := range res.DeadZones {
		switch d.Severity {
		case "high":
			score -= 12
		case "medium":
			score -= 6
		default:
			score -= 3
		}
	}
	purchasePaths := 0
	for _, p := range res.KeyPaths {
		if p.Kind == "entry_purchase" {
			purchasePaths++
		}
	}
	if len(res.KeyPaths) > 0 && purchasePaths == 0 {
		score -= 5
	}
	if score < 0 {
		score = 0
	}
	return score
}

func entryZones(zones map[uuid.UUID]*domain.Zone) []uuid.UUID {
	var out []uuid.UUID
	for id, z := range zones {
		if z.IsEntrance() {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func busiestZones(edges map[uuid.UUID]map[uuid.UUID]int, n int) []uuid.UUID {
	type zc struct {
		id    uuid.UUID
		count int
	}
	var all []zc
	for from, outs := range edges {
		sum := 0
		for _, c := range outs {
			sum += c
		}
		all = append(all, zc{from, sum})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].id.String() < all[j].id.String()
	})
	var out []uuid.UUID
	for i := 0; i < len(all) && i < n; i++ {
		out = append(out, all[i].id)
	}
	return out
}

func strongestEdge(outs map[uuid.UUID]int, seen map[uuid.UUID]bool) (uuid.UUID, int) {
	var best uuid.UUID
	bestCount := 0
	for to, c := range outs {
		if seen[to] {
			continue
		}
		if c > bestCount || (c == bestCount && c > 0 && to.String() < best.String()) {
			best = to
			bestCount = c
		}
	}
	return best, bestCount
}

func zoneNames(ids []uuid.UUID, zones map[uuid.UUID]*domain.Zone) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if z, ok := zones[id]; ok {
			out = append(out, z.Name)
		} else {
			out = append(out, id.String())
		}
	}
	return out
}
