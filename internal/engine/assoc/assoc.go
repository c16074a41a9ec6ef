package assoc

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type Input struct {
	Transactions []*domain.StoreTransaction
	Products     map[uuid.UUID]*domain.Product
}

// Rule is a mined association antecedent -> consequent. Rules are recomputed
// each run and never persisted as authoritative truth.
type Rule struct {
	Antecedent []uuid.UUID `json:"antecedent"`
	Consequent []uuid.UUID `json:"consequent"`
	Support    float64     `json:"support"`
	Confidence float64     `json:"confidence"`
	Lift       float64     `json:"lift"`
	Strength   string      `json:"strength"` // very_strong | strong | moderate
}

type CategoryAffinity struct {
	CategoryA string  `json:"category_a"`
	CategoryB string  `json:"category_b"`
	Score     float64 `json:"score"`
	Baskets   int     `json:"baskets"`
}

type Placement struct {
	Kind      string    `json:"kind"` // bundle | cross_sell | upsell | impulse
	AnchorID  uuid.UUID `json:"anchor_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
}

type Summary struct {
	TotalTransactions int     `json:"total_transactions"`
	AvgBasketSize     float64 `json:"avg_basket_size"`
	DroppedItems      int     `json:"dropped_items"`
	DataQuality       string  `json:"data_quality"` // good | sparse | insufficient
}

type Result struct {
	Rules              []Rule             `json:"association_rules"`
	CategoryAffinities []CategoryAffinity `json:"category_affinities"`
	Placements         []Placement        `json:"placement_recommendations"`
	Summary            Summary            `json:"summary"`
}

// Mine runs Apriori-style frequent-itemset mining over the basket window and
// derives rules, category affinities and placement recommendations. Below the
// minimum transaction count it returns an empty rule set flagged
// insufficient, never an error.
func Mine(in Input, cfg config.AssociationConfig, log *logger.Logger) *Result {
	res := &Result{}

	baskets, dropped := toBaskets(in, log)
	res.Summary.TotalTransactions = len(baskets)
	res.Summary.DroppedItems = dropped

	if len(baskets) < cfg.MinTransactions {
		res.Summary.DataQuality = "insufficient"
		return res
	}

	items := 0
	for _, b := range baskets {
		items += len(b)
	}
	res.Summary.AvgBasketSize = float64(items) / float64(len(baskets))
	res.Summary.DataQuality = "good"
	if len(baskets) < cfg.MinTransactions*5 {
		res.Summary.DataQuality = "sparse"
	}

	total := float64(len(baskets))
	singles := countSingles(baskets)
	frequent := map[uuid.UUID]float64{}
	for id, c := range singles {
		if s := float64(c) / total; s >= cfg.MinSupport {
			frequent[id] = s
		}
	}

	pairs := countPairs(baskets, frequent)
	res.Rules = buildRules(pairs, frequent, total, cfg)
	if cfg.MaxItemsetSize >= 3 {
		triples := countTriples(baskets, frequent)
		res.Rules = append(res.Rules, buildTripleRules(triples, pairs, frequent, total, cfg)...)
	}
	sortRules(res.Rules)

	res.CategoryAffinities = categoryAffinities(baskets, in.Products)
	res.Placements = placements(res.Rules, in.Products, cfg)
	return res
}

// toBaskets converts transactions to unique known-product ID sets. Unknown
// product IDs are dropped with a warning, not a hard failure; a basket that
// empties out is skipped.
func toBaskets(in Input, log *logger.Logger) ([][]uuid.UUID, int) {
	var baskets [][]uuid.UUID
	dropped := 0
	for _, tx := range in.Transactions {
		seen := map[uuid.UUID]bool{}
		var basket []uuid.UUID
		for _, item := range tx.Items {
			if _, ok := in.Products[item.ProductID]; !ok {
				dropped++
				continue
			}
			if seen[item.ProductID] {
				continue
			}
			seen[item.ProductID] = true
			basket = append(basket, item.ProductID)
		}
		if len(basket) == 0 {
			continue
		}
		sort.Slice(basket, func(i, j int) bool { return basket[i].String() < basket[j].String() })
		baskets = append(baskets, basket)
	}
	if dropped > 0 && log != nil {
		log.Warn("dropped transaction items with unknown products", "count", dropped)
	}
	return baskets, dropped
}

func countSingles(baskets [][]uuid.UUID) map[uuid.UUID]int {
	out := map[uuid.UUID]int{}
	for _, b := range baskets {
		for _, id := range b {
			out[id]++
		}
	}
	return out
}

func pairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + "|" + b.String()
	}
	return b.String() + "|" + a.String()
}

func countPairs(baskets [][]uuid.UUID, frequent map[uuid.UUID]float64) map[string]int {
	out := map[string]int{}
	for _, b := range baskets {
		for i := 0; i < len(b); i++ {
			if _, ok := frequent[b[i]]; !ok {
				continue
			}
			for j := i + 1; j < len(b); j++ {
				if _, ok := frequent[b[j]]; !ok {
					continue
				}
				out[pairKey(b[i], b[j])]++
			}
		}
	}
	return out
}

func countTriples(baskets [][]uuid.UUID, frequent map[uuid.UUID]float64) map[string]int {
	out := map[string]int{}
	for _, b := range baskets {
		var f []uuid.UUID
		for _, id := range b {
			if _, ok := frequent[id]; ok {
				f = append(f, id)
			}
		}
		for i := 0; i < len(f); i++ {
			for j := i + 1; j < len(f); j++ {
				for k := j + 1; k < len(f); k++ {
					out[f[i].String()+"|"+f[j].String()+"|"+f[k].String()]++
				}
			}
		}
	}
	return out
}

func buildRules(pairs map[string]int, frequent map[uuid.UUID]float64, total float64, cfg config.AssociationConfig) []Rule {
	var rules []Rule
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		count := pairs[k]
		pairSupport := float64(count) / total
		if pairSupport < cfg.MinSupport {
			continue
		}
		ids := strings.Split(k, "|")
		a := uuid.MustParse(ids[0])
		b := uuid.MustParse(ids[1])
		for _, dir := range [][2]uuid.UUID{{a, b}, {b, a}} {
			ant, cons := dir[0], dir[1]
			confidence := pairSupport / frequent[ant]
			if confidence < cfg.MinConfidence {
				continue
			}
			lift := confidence / frequent[cons]
			rules = append(rules, Rule{
				Antecedent: []uuid.UUID{ant},
				Consequent: []uuid.UUID{cons},
				Support:    pairSupport,
				Confidence: confidence,
				Lift:       lift,
				Strength:   strength(lift, confidence, cfg),
			})
		}
	}
	return rules
}

func buildTripleRules(triples map[string]int, pairs map[string]int, frequent map[uuid.UUID]float64, total float64, cfg config.AssociationConfig) []Rule {
	var rules []Rule
	keys := make([]string, 0, len(triples))
	for k := range triples {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		count := triples[k]
		tripleSupport := float64(count) / total
		if tripleSupport < cfg.MinSupport {
			continue
		}
		parts := strings.Split(k, "|")
		ids := []uuid.UUID{uuid.MustParse(parts[0]), uuid.MustParse(parts[1]), uuid.MustParse(parts[2])}
		for ci := 0; ci < 3; ci++ {
			cons := ids[ci]
			var ant []uuid.UUID
			for i, id := range ids {
				if i != ci {
					ant = append(ant, id)
				}
			}
			antCount := pairs[pairKey(ant[0], ant[1])]
			if antCount == 0 {
				continue
			}
			confidence := tripleSupport / (float64(antCount) / total)
			if confidence < cfg.MinConfidence {
				continue
			}
			lift := confidence / frequent[cons]
			rules = append(rules, Rule{
				Antecedent: ant,
				Consequent: []uuid.UUID{cons},
				Support:    tripleSupport,
				Confidence: confidence,
				Lift:       lift,
				Strength:   strength(lift, confidence, cfg),
			})
		}
	}
	return rules
}

func strength(lift, confidence float64, cfg config.AssociationConfig) string {
	switch {
	case lift >= cfg.BundleLift && confidence >= cfg.BundleConfidence:
		return "very_strong"
	case lift >= cfg.CrossSellLift && confidence >= cfg.CrossSellConfidence:
		return "strong"
	default:
		return "moderate"
	}
}

func sortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Lift != rules[j].Lift {
			return rules[i].Lift > rules[j].Lift
		}
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		return rules[i].Antecedent[0].String() < rules[j].Antecedent[0].String()
	})
}

// categoryAffinities is the coarser, sparse-data-robust signal: normalized
// basket co-occurrence between category pairs, independent of per-product
// rules.
func categoryAffinities(baskets [][]uuid.UUID, products map[uuid.UUID]*domain.Product) []CategoryAffinity {
	catBaskets := map[string]int{}
	pairBaskets := map[string]int{}

	for _, b := range baskets {
		cats := map[string]bool{}
		for _, id := range b {
			if p, ok := products[id]; ok {
				cats[p.Category] = true
			}
		}
		var list []string
		for c := range cats {
			list = append(list, c)
		}
		sort.Strings(list)
		for i, c := range list {
			catBaskets[c]++
			for j := i + 1; j < len(list); j++ {
				pairBaskets[c+"|"+list[j]]++
			}
		}
	}

	keys := make([]string, 0, len(pairBaskets))
	for k := range pairBaskets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []CategoryAffinity
	for _, k := range keys {
		parts := strings.Split(k, "|")
		a, b := parts[0], parts[1]
		denom := catBaskets[a]
		if catBaskets[b] < denom {
			denom = catBaskets[b]
		}
		if denom == 0 {
			continue
		}
		out = append(out, CategoryAffinity{
			CategoryA: a,
			CategoryB: b,
			Score:     float64(pairBaskets[k]) / float64(denom),
			Baskets:   pairBaskets[k],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// placements thresholds rule strength into physical placement advice.
func placements(rules []Rule, products map[uuid.UUID]*domain.Product, cfg config.AssociationConfig) []Placement {
	seen := map[string]bool{}
	var out []Placement
	for _, r := range rules {
		if len(r.Antecedent) != 1 || len(r.Consequent) != 1 {
			continue
		}
		anchor, partner := r.Antecedent[0], r.Consequent[0]
		pa, pb := products[anchor], products[partner]
		if pa == nil || pb == nil {
			continue
		}
		key := pairKey(anchor, partner)

		kind := ""
		reason := ""
		switch {
		case r.Strength == "very_strong":
			kind = "bundle"
			reason = "bought together far more than chance; display as a bundle"
		case pb.Price >= pa.Price*cfg.UpsellPriceRatio && r.Confidence >= cfg.MinConfidence:
			kind = "upsell"
			reason = "higher-priced companion; place within sight of the anchor"
		case pb.Price > 0 && pb.Price <= cfg.ImpulsePriceMax && r.Strength != "moderate":
			kind = "impulse"
			reason = "low-cost companion; position along the checkout path"
		case r.Strength == "strong":
			kind = "cross_sell"
			reason = "frequently co-purchased; shelve within the same sightline"
		}
		if kind == "" || seen[kind+key] {
			continue
		}
		seen[kind+key] = true
		out = append(out, Placement{
			Kind:      kind,
			AnchorID:  anchor,
			PartnerID: partner,
			Score:     r.Lift * r.Confidence,
			Reason:    reason,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
