package assoc

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
)

func product(name, category string, price float64) *domain.Product {
	return &domain.Product{ID: uuid.New(), Name: name, Category: category, Price: price}
}

func basket(ids ...uuid.UUID) *domain.StoreTransaction {
	tx := &domain.StoreTransaction{ID: uuid.New()}
	for _, id := range ids {
		tx.Items = append(tx.Items, domain.TransactionItem{ProductID: id, Quantity: 1})
	}
	return tx
}

func repeat(n int, build func() *domain.StoreTransaction) []*domain.StoreTransaction {
	out := make([]*domain.StoreTransaction, n)
	for i := 0; i < n; i++ {
		out[i] = build()
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMine_InsufficientBelowMinimum(t *testing.T) {
	a := product("chips", "snacks", 3)
	txs := []*domain.StoreTransaction{basket(a.ID), basket(a.ID), basket(a.ID)}
	in := Input{Transactions: txs, Products: map[uuid.UUID]*domain.Product{a.ID: a}}

	res := Mine(in, config.Default().Association, nil)
	if res.Summary.DataQuality != "insufficient" {
		t.Fatalf("expected insufficient, got %q", res.Summary.DataQuality)
	}
	if len(res.Rules) != 0 || len(res.Placements) != 0 {
		t.Fatalf("expected no rules or placements below the minimum window")
	}
}

func TestMine_BundleRuleConfidenceAndLift(t *testing.T) {
	wine := product("wine", "beverages", 15)
	cheese := product("cheese", "dairy", 8)
	bread := product("bread", "bakery", 2)
	products := map[uuid.UUID]*domain.Product{wine.ID: wine, cheese.ID: cheese, bread.ID: bread}

	// wine and cheese always co-occur, bread fills the remaining baskets:
	// support(pair)=0.25, confidence=1.0, lift=4.0 in both directions.
	var txs []*domain.StoreTransaction
	txs = append(txs, repeat(5, func() *domain.StoreTransaction { return basket(wine.ID, cheese.ID) })...)
	txs = append(txs, repeat(15, func() *domain.StoreTransaction { return basket(bread.ID) })...)

	res := Mine(Input{Transactions: txs, Products: products}, config.Default().Association, nil)
	if res.Summary.DataQuality != "sparse" {
		t.Fatalf("expected sparse quality at 20 baskets, got %q", res.Summary.DataQuality)
	}
	if len(res.Rules) != 2 {
		t.Fatalf("expected both rule directions, got %d", len(res.Rules))
	}
	r := res.Rules[0]
	if !approx(r.Support, 0.25) || !approx(r.Confidence, 1.0) || !approx(r.Lift, 4.0) {
		t.Fatalf("unexpected rule stats: %+v", r)
	}
	if r.Strength != "very_strong" {
		t.Fatalf("expected very_strong, got %q", r.Strength)
	}

	if len(res.Placements) != 1 {
		t.Fatalf("expected one deduplicated placement, got %d", len(res.Placements))
	}
	if res.Placements[0].Kind != "bundle" {
		t.Fatalf("expected bundle placement, got %q", res.Placements[0].Kind)
	}
}

func TestMine_ImpulsePlacementForCheapPartner(t *testing.T) {
	coffee := product("coffee", "beverages", 5)
	biscuits := product("biscuits", "snacks", 5)
	milk := product("milk", "dairy", 2)
	products := map[uuid.UUID]*domain.Product{coffee.ID: coffee, biscuits.ID: biscuits, milk.ID: milk}

	// support(coffee)=0.4, support(biscuits)=0.2, support(pair)=0.18:
	// coffee->biscuits has confidence 0.45 and lift 2.25, a strong rule whose
	// low-priced partner lands in the impulse bucket.
	var txs []*domain.StoreTransaction
	txs = append(txs, repeat(9, func() *domain.StoreTransaction { return basket(coffee.ID, biscuits.ID) })...)
	txs = append(txs, repeat(11, func() *domain.StoreTransaction { return basket(coffee.ID) })...)
	txs = append(txs, repeat(1, func() *domain.StoreTransaction { return basket(biscuits.ID) })...)
	txs = append(txs, repeat(29, func() *domain.StoreTransaction { return basket(milk.ID) })...)

	res := Mine(Input{Transactions: txs, Products: products}, config.Default().Association, nil)

	var strong *Rule
	for i := range res.Rules {
		if res.Rules[i].Antecedent[0] == coffee.ID {
			strong = &res.Rules[i]
		}
	}
	if strong == nil {
		t.Fatalf("expected a coffee->biscuits rule")
	}
	if !approx(strong.Confidence, 0.45) || !approx(strong.Lift, 2.25) {
		t.Fatalf("unexpected rule stats: %+v", strong)
	}
	if strong.Strength != "strong" {
		t.Fatalf("expected strong, got %q", strong.Strength)
	}

	if len(res.Placements) != 1 || res.Placements[0].Kind != "impulse" {
		t.Fatalf("expected a single impulse placement, got %+v", res.Placements)
	}
}

func TestMine_UnknownProductsDroppedNotFatal(t *testing.T) {
	a := product("chips", "snacks", 3)
	products := map[uuid.UUID]*domain.Product{a.ID: a}

	txs := repeat(25, func() *domain.StoreTransaction { return basket(a.ID) })
	txs = append(txs, basket(uuid.New()))

	res := Mine(Input{Transactions: txs, Products: products}, config.Default().Association, nil)
	if res.Summary.DroppedItems != 1 {
		t.Fatalf("expected 1 dropped item, got %d", res.Summary.DroppedItems)
	}
	// The emptied basket is skipped entirely.
	if res.Summary.TotalTransactions != 25 {
		t.Fatalf("expected 25 counted baskets, got %d", res.Summary.TotalTransactions)
	}
}

func TestMine_RandomBasketsRuleIdentities(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	catalog := make([]*domain.Product, 8)
	products := map[uuid.UUID]*domain.Product{}
	for i := range catalog {
		catalog[i] = product(fmt.Sprintf("sku-%d", i), "grocery", 2+float64(i))
		products[catalog[i].ID] = catalog[i]
	}

	// Two anchor products co-occur in 40% of baskets, the rest is noise. Every
	// rule Mine reports must match an independent recount of the same baskets.
	singles := map[uuid.UUID]int{}
	pairs := map[string]int{}
	var txs []*domain.StoreTransaction
	for i := 0; i < 350; i++ {
		seen := map[uuid.UUID]bool{}
		if i%5 < 2 {
			seen[catalog[0].ID] = true
			seen[catalog[1].ID] = true
		}
		for _, p := range catalog {
			if rng.Float64() < 0.25 {
				seen[p.ID] = true
			}
		}
		if len(seen) == 0 {
			continue
		}
		var ids []uuid.UUID
		for id := range seen {
			ids = append(ids, id)
		}
		for j := range ids {
			singles[ids[j]]++
			for k := j + 1; k < len(ids); k++ {
				pairs[pairKey(ids[j], ids[k])]++
			}
		}
		txs = append(txs, basket(ids...))
	}

	cfg := config.Default().Association
	res := Mine(Input{Transactions: txs, Products: products}, cfg, nil)
	if res.Summary.TotalTransactions != len(txs) {
		t.Fatalf("expected %d counted baskets, got %d", len(txs), res.Summary.TotalTransactions)
	}
	if len(res.Rules) == 0 {
		t.Fatalf("expected rules from the forced co-occurrence")
	}

	total := float64(len(txs))
	for _, r := range res.Rules {
		ant, cons := r.Antecedent[0], r.Consequent[0]
		support := float64(pairs[pairKey(ant, cons)]) / total
		confidence := support / (float64(singles[ant]) / total)
		lift := confidence / (float64(singles[cons]) / total)
		if !approx(r.Support, support) || !approx(r.Confidence, confidence) || !approx(r.Lift, lift) {
			t.Fatalf("rule diverges from recount: got %+v want support=%v confidence=%v lift=%v", r, support, confidence, lift)
		}
		if r.Support < cfg.MinSupport || r.Confidence < cfg.MinConfidence {
			t.Fatalf("rule below mining thresholds: %+v", r)
		}
	}
}

func TestMine_CategoryAffinities(t *testing.T) {
	wine := product("wine", "beverages", 15)
	cheese := product("cheese", "dairy", 8)
	products := map[uuid.UUID]*domain.Product{wine.ID: wine, cheese.ID: cheese}

	txs := repeat(20, func() *domain.StoreTransaction { return basket(wine.ID, cheese.ID) })
	res := Mine(Input{Transactions: txs, Products: products}, config.Default().Association, nil)

	if len(res.CategoryAffinities) != 1 {
		t.Fatalf("expected one category pair, got %d", len(res.CategoryAffinities))
	}
	aff := res.CategoryAffinities[0]
	if aff.CategoryA != "beverages" || aff.CategoryB != "dairy" {
		t.Fatalf("unexpected pair ordering: %+v", aff)
	}
	if !approx(aff.Score, 1.0) || aff.Baskets != 20 {
		t.Fatalf("expected perfect co-occurrence, got %+v", aff)
	}
}
