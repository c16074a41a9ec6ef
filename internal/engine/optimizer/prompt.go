package optimizer

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const systemPrompt = `You are a retail space-planning analyst. You receive a store's customer-flow analysis, basket association rules, visual-merchandising audit and environment context. Propose layout changes that improve the requested goal. Only reposition furniture marked movable, only reassign products to listed free slots, and keep suggestions physically plausible. Respond with JSON matching the provided schema and nothing else.`

const repairPrompt = `Your previous answer did not validate against the schema. Respond again with ONLY a JSON object matching the schema exactly: every subject_id and target id must come from the provided context, priority must be one of high, medium, low, and no commentary is allowed outside the JSON object.`

// buildUserPrompt serializes the context bundle the reasoning service sees.
// Movable furniture is pre-filtered to the requested scope so the model only
// sees subjects the validator would accept.
func (s *Service) buildUserPrompt(req Request, snap *Snapshot, an *analysis) string {
	sc := newScope(req.Params)

	movable := []map[string]any{}
	for _, f := range snap.Furniture {
		if !f.Movable || !sc.allowFurniture(f.ID) {
			continue
		}
		movable = append(movable, map[string]any{
			"id":      f.ID.String(),
			"type":    f.Type,
			"zone_id": f.ZoneID.String(),
		})
	}

	zones := []map[string]any{}
	for _, z := range snap.Zones {
		zones = append(zones, map[string]any{
			"id":   z.ID.String(),
			"name": z.Name,
			"type": z.Type,
		})
	}

	freeSlots := []map[string]any{}
	placements := []map[string]any{}
	for _, slot := range snap.Slots {
		entry := map[string]any{
			"slot_id":      slot.ID.String(),
			"furniture_id": slot.FurnitureID.String(),
			"band":         slot.Band,
		}
		if slot.ProductID == nil {
			freeSlots = append(freeSlots, entry)
		} else {
			entry["product_id"] = slot.ProductID.String()
			placements = append(placements, entry)
		}
	}

	topRules := an.Assoc.Rules
	if len(topRules) > 10 {
		topRules = topRules[:10]
	}

	history := []map[string]any{}
	for _, run := range snap.RecentRuns {
		history = append(history, map[string]any{
			"optimization_type": run.OptimizationType,
			"source":            run.Source,
			"status":            run.Status,
			"summary":           json.RawMessage(run.Summary),
		})
	}

	bundle := map[string]any{
		"request": map[string]any{
			"optimization_type":   req.OptimizationType,
			"goal":                req.Params.Goal,
			"intensity":           req.Params.Intensity,
			"max_changes":         s.maxChanges(req),
			"diagnostic_issues":   req.Params.DiagnosticIssues,
			"environment_context": req.Params.EnvironmentContext,
			"zone_ids":            idStrings(req.Params.ZoneIDs),
			"product_ids":         idStrings(req.Params.ProductIDs),
			"furniture_ids":       idStrings(req.Params.FurnitureIDs),
		},
		"environment":        an.Env,
		"flow_analysis":      an.Flow,
		"association_rules":  topRules,
		"placement_hints":    an.Assoc.Placements,
		"vmd_analysis":       an.VMD,
		"zones":              zones,
		"movable_furniture":  movable,
		"current_placements": placements,
		"free_slots":         freeSlots,
		"recent_runs":        history,
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Sprintf(`{"request":{"optimization_type":%q}}`, req.OptimizationType)
	}
	return string(raw)
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// responseSchema is the explicit output contract sent alongside the prompt.
func responseSchema() map[string]any {
	changeItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject_id":          map[string]any{"type": "string"},
			"target_zone_id":      map[string]any{"type": "string"},
			"target_furniture_id": map[string]any{"type": "string"},
			"target_slot_id":      map[string]any{"type": "string"},
			"reason":              map[string]any{"type": "string"},
			"priority":            map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
		},
		"required":             []string{"subject_id", "reason", "priority"},
		"additionalProperties": false,
	}
	staffItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"staff_id":       map[string]any{"type": "string"},
			"target_zone_id": map[string]any{"type": "string"},
			"reason":         map[string]any{"type": "string"},
		},
		"required":             []string{"staff_id", "target_zone_id", "reason"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"furniture_changes": map[string]any{"type": "array", "items": changeItem},
			"product_changes":   map[string]any{"type": "array", "items": changeItem},
			"staffing_changes":  map[string]any{"type": "array", "items": staffItem},
		},
		"required":             []string{"furniture_changes", "product_changes"},
		"additionalProperties": false,
	}
}
