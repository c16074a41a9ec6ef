package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
)

// Reasoner is the external reasoning-service contract: a structured prompt
// plus a JSON-schema description of the expected output. The reply may carry
// commentary around the JSON object; validation failure is normal control
// flow, not an exception path.
type Reasoner interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

type reasonedChanges struct {
	Furniture []Change
	Product   []Change
	Staffing  []StaffAssignment
}

// inferChanges calls the reasoning service with a bounded timeout and
// validates the reply. One repair retry with a stricter instruction is
// attempted before the caller falls back to the rule generator.
func (s *Service) inferChanges(ctx context.Context, req Request, snap *Snapshot, an *analysis) (*reasonedChanges, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.reasoningTimeout())
	defer cancel()

	user := s.buildUserPrompt(req, snap, an)
	schema := responseSchema()
	sc := newScope(req.Params)

	obj, err := s.reasoner.GenerateJSON(callCtx, systemPrompt, user, "layout_changes", schema)
	if err == nil {
		if parsed, verr := s.validateResponse(obj, snap, sc); verr == nil {
			return parsed, nil
		} else {
			err = verr
		}
	}
	s.log.Warn("reasoning response rejected, retrying with repair instruction", "error", err)

	retryCtx, cancelRetry := context.WithTimeout(ctx, s.reasoningTimeout())
	defer cancelRetry()
	obj, rerr := s.reasoner.GenerateJSON(retryCtx, systemPrompt+"\n\n"+repairPrompt, user, "layout_changes", schema)
	if rerr != nil {
		return nil, fmt.Errorf("reasoning retry: %w", rerr)
	}
	parsed, verr := s.validateResponse(obj, snap, sc)
	if verr != nil {
		return nil, fmt.Errorf("reasoning retry invalid: %w", verr)
	}
	return parsed, nil
}

// ParseResponseText recovers a JSON object from free text that may include
// surrounding commentary, then validates it. Exposed for the schema fuzz
// tests; the orchestrator itself receives parsed objects from the client.
func (s *Service) ParseResponseText(text string, snap *Snapshot) (*reasonedChanges, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("parse response JSON: %w", err)
	}
	return s.validateResponse(obj, snap, scope{})
}

// validateResponse turns the schema-shaped map into typed changes, dropping
// entries that reference unknown or immovable subjects or that fall outside
// the requested scope. An empty valid set is an error so the caller can fall
// back.
func (s *Service) validateResponse(obj map[string]any, snap *Snapshot, sc scope) (*reasonedChanges, error) {
	if obj == nil {
		return nil, fmt.Errorf("empty response object")
	}

	furnitureByID := map[uuid.UUID]*domain.Furniture{}
	furnitureZone := map[uuid.UUID]uuid.UUID{}
	for _, f := range snap.Furniture {
		furnitureByID[f.ID] = f
		furnitureZone[f.ID] = f.ZoneID
	}
	zoneByID := map[uuid.UUID]*domain.Zone{}
	for _, z := range snap.Zones {
		zoneByID[z.ID] = z
	}
	slotByID := map[uuid.UUID]*domain.ShelfSlot{}
	slotOfProduct := map[uuid.UUID]*domain.ShelfSlot{}
	for _, slot := range snap.Slots {
		slotByID[slot.ID] = slot
		if slot.ProductID != nil {
			slotOfProduct[*slot.ProductID] = slot
		}
	}
	staffByID := map[uuid.UUID]*domain.StaffMember{}
	for _, m := range snap.Staff {
		staffByID[m.ID] = m
	}

	out := &reasonedChanges{}
	dropped := 0

	for _, item := range asItems(obj["furniture_changes"]) {
		id, ok := parseID(item["subject_id"])
		if !ok {
			dropped++
			continue
		}
		f, ok := furnitureByID[id]
		if !ok || !f.Movable || !sc.allowFurniture(id) {
			dropped++
			continue
		}
		targetZone, ok := parseID(item["target_zone_id"])
		if !ok || zoneByID[targetZone] == nil || targetZone == f.ZoneID || !sc.allowZone(targetZone) {
			dropped++
			continue
		}
		out.Furniture = append(out.Furniture, Change{
			ChangeType: domain.ChangeTypeFurniture,
			SubjectID:  id,
			Current:    map[string]any{"zone_id": f.ZoneID.String()},
			Suggested:  map[string]any{"zone_id": targetZone.String()},
			Reason:     asReason(item["reason"]),
			Priority:   asPriority(item["priority"]),
			Metric:     "revenue",
		})
	}

	for _, item := range asItems(obj["product_changes"]) {
		id, ok := parseID(item["subject_id"])
		if !ok || snap.Products[id] == nil || !sc.allowProduct(id) {
			dropped++
			continue
		}
		targetSlot, ok := parseID(item["target_slot_id"])
		if !ok {
			dropped++
			continue
		}
		slot, exists := slotByID[targetSlot]
		if !exists || (slot.ProductID != nil && *slot.ProductID != id) {
			dropped++
			continue
		}
		if !sc.allowZone(furnitureZone[slot.FurnitureID]) {
			dropped++
			continue
		}
		current := map[string]any{}
		if cur := slotOfProduct[id]; cur != nil {
			if cur.ID == targetSlot {
				dropped++
				continue
			}
			current["slot_id"] = cur.ID.String()
			current["furniture_id"] = cur.FurnitureID.String()
		}
		out.Product = append(out.Product, Change{
			ChangeType: domain.ChangeTypeProduct,
			SubjectID:  id,
			Current:    current,
			Suggested: map[string]any{
				"slot_id":      targetSlot.String(),
				"furniture_id": slot.FurnitureID.String(),
			},
			Reason:   asReason(item["reason"]),
			Priority: asPriority(item["priority"]),
			Metric:   "revenue",
		})
	}

	for _, item := range asItems(obj["staffing_changes"]) {
		id, ok := parseID(item["staff_id"])
		if !ok || staffByID[id] == nil {
			dropped++
			continue
		}
		zoneID, ok := parseID(item["target_zone_id"])
		if !ok || zoneByID[zoneID] == nil || !sc.allowZone(zoneID) {
			dropped++
			continue
		}
		m := staffByID[id]
		out.Staffing = append(out.Staffing, StaffAssignment{
			StaffID:   id,
			StaffName: m.Name,
			Role:      m.Role,
			ZoneID:    zoneID,
			ZoneName:  zoneByID[zoneID].Name,
			Reason:    asReason(item["reason"]),
		})
	}

	if dropped > 0 {
		s.log.Warn("dropped invalid reasoning changes", "count", dropped)
	}
	if len(out.Furniture) == 0 && len(out.Product) == 0 && len(out.Staffing) == 0 {
		return nil, fmt.Errorf("response contained no valid changes")
	}
	return out, nil
}

func asItems(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func parseID(v any) (uuid.UUID, bool) {
	s, ok := v.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func asReason(v any) string {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "suggested by layout analysis"
	}
	return s
}

func asPriority(v any) string {
	s, _ := v.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case domain.PriorityHigh:
		return domain.PriorityHigh
	case domain.PriorityLow:
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

// extractJSONObject returns the first balanced top-level JSON object in text,
// tolerating commentary before and after it.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
