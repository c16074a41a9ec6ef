package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/storelytic/storetwin-backend/internal/domain"
)

// DataStore is the typed read contract the orchestrator loads a run snapshot
// from. Every method is an independent read keyed by store.
type DataStore interface {
	GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error)
	ListZones(ctx context.Context, storeID uuid.UUID) ([]*domain.Zone, error)
	ListFurniture(ctx context.Context, storeID uuid.UUID) ([]*domain.Furniture, error)
	ListProducts(ctx context.Context, storeID uuid.UUID) ([]*domain.Product, error)
	ListSlots(ctx context.Context, storeID uuid.UUID) ([]*domain.ShelfSlot, error)
	ListTransactions(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.StoreTransaction, error)
	ListTransitions(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.ZoneTransition, error)
	ListVisits(ctx context.Context, storeID uuid.UUID, since time.Time) ([]*domain.VisitRecord, error)
	LatestEnvironment(ctx context.Context, storeID uuid.UUID) (*domain.EnvironmentSnapshot, error)
	ListStaff(ctx context.Context, storeID uuid.UUID) ([]*domain.StaffMember, error)
	LatestParameters(ctx context.Context, storeID uuid.UUID) (*domain.ModelParameterVersion, error)
	ListRecentRuns(ctx context.Context, storeID uuid.UUID, limit int) ([]*domain.OptimizationRun, error)
}

// Sink is the write contract: pending recommendations and the audit record.
type Sink interface {
	CreateRun(ctx context.Context, run *domain.OptimizationRun) error
	CreateRecommendations(ctx context.Context, recs []*domain.Recommendation) error
}

// loadSnapshot fans out all source reads concurrently. Only the store row and
// the zone list are hard requirements; every other source degrades to an
// empty default and is listed in Snapshot.Degraded.
func (s *Service) loadSnapshot(ctx context.Context, storeID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{Products: map[uuid.UUID]*domain.Product{}}
	txSince := time.Now().UTC().AddDate(0, 0, -s.cfg.Association.WindowDays)
	flowSince := time.Now().UTC().AddDate(0, 0, -s.cfg.Flow.WindowDays)

	var (
		storeErr, zonesErr                                      error
		furnitureErr, productsErr, slotsErr, txErr              error
		transitionsErr, visitsErr, envErr, staffErr, paramsErr  error
		runsErr                                                 error
		products                                                []*domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { snap.Store, storeErr = s.store.GetStore(gctx, storeID); return nil })
	g.Go(func() error { snap.Zones, zonesErr = s.store.ListZones(gctx, storeID); return nil })
	g.Go(func() error { snap.Furniture, furnitureErr = s.store.ListFurniture(gctx, storeID); return nil })
	g.Go(func() error { products, productsErr = s.store.ListProducts(gctx, storeID); return nil })
	g.Go(func() error { snap.Slots, slotsErr = s.store.ListSlots(gctx, storeID); return nil })
	g.Go(func() error {
		snap.Transactions, txErr = s.store.ListTransactions(gctx, storeID, txSince)
		return nil
	})
	g.Go(func() error {
		snap.Transitions, transitionsErr = s.store.ListTransitions(gctx, storeID, flowSince)
		return nil
	})
	g.Go(func() error { snap.Visits, visitsErr = s.store.ListVisits(gctx, storeID, flowSince); return nil })
	g.Go(func() error { snap.Environment, envErr = s.store.LatestEnvironment(gctx, storeID); return nil })
	g.Go(func() error { snap.Staff, staffErr = s.store.ListStaff(gctx, storeID); return nil })
	g.Go(func() error { snap.Params, paramsErr = s.store.LatestParameters(gctx, storeID); return nil })
	g.Go(func() error {
		snap.RecentRuns, runsErr = s.store.ListRecentRuns(gctx, storeID, s.cfg.Orchestrator.HistoryExamples)
		return nil
	})
	_ = g.Wait()

	if storeErr != nil || snap.Store == nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
	}
	if zonesErr != nil {
		return nil, fmt.Errorf("load zones: %w", zonesErr)
	}
	if len(snap.Zones) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoZones, storeID)
	}

	for _, p := range products {
		snap.Products[p.ID] = p
	}
	if snap.Params == nil && paramsErr == nil {
		snap.Params = domain.DefaultParameters(storeID)
	}

	degrade := func(name string, err error) {
		if err == nil {
			return
		}
		snap.Degraded = append(snap.Degraded, name)
		s.log.Warn("data source degraded to empty default", "source", name, "store_id", storeID, "error", err)
	}
	degrade("furniture", furnitureErr)
	degrade("products", productsErr)
	degrade("slots", slotsErr)
	degrade("transactions", txErr)
	degrade("transitions", transitionsErr)
	degrade("visits", visitsErr)
	degrade("environment", envErr)
	degrade("staff", staffErr)
	degrade("recent_runs", runsErr)
	if paramsErr != nil {
		degrade("parameters", paramsErr)
		snap.Params = domain.DefaultParameters(storeID)
	}
	return snap, nil
}

// aggregate derives the per-run performance views the predictors read.
func aggregate(snap *Snapshot) (map[uuid.UUID]*domain.ProductPerformance, map[uuid.UUID]*domain.ZonePerformance, map[uuid.UUID]float64) {
	productPerf := map[uuid.UUID]*domain.ProductPerformance{}
	for _, tx := range snap.Transactions {
		for _, item := range tx.Items {
			perf := productPerf[item.ProductID]
			if perf == nil {
				perf = &domain.ProductPerformance{ProductID: item.ProductID}
				productPerf[item.ProductID] = perf
			}
			perf.Revenue += item.UnitPrice * float64(item.Quantity)
			perf.Units += item.Quantity
			if tx.OccurredAt.After(perf.LastSold) {
				perf.LastSold = tx.OccurredAt
			}
		}
	}

	furnitureZone := map[uuid.UUID]uuid.UUID{}
	for _, f := range snap.Furniture {
		furnitureZone[f.ID] = f.ZoneID
	}

	zonePerf := map[uuid.UUID]*domain.ZonePerformance{}
	ensureZone := func(id uuid.UUID) *domain.ZonePerformance {
		zp := zonePerf[id]
		if zp == nil {
			zp = &domain.ZonePerformance{ZoneID: id}
			zonePerf[id] = zp
		}
		return zp
	}
	// Zone revenue is attributed through current product placement.
	for _, slot := range snap.Slots {
		if slot.ProductID == nil {
			continue
		}
		zid, ok := furnitureZone[slot.FurnitureID]
		if !ok {
			continue
		}
		if perf, ok := productPerf[*slot.ProductID]; ok {
			ensureZone(zid).Revenue += perf.Revenue
		}
	}
	for _, v := range snap.Visits {
		zp := ensureZone(v.ZoneID)
		zp.Visits++
		if v.Purchased {
			zp.Conversions++
		}
	}

	incoming := map[uuid.UUID]int{}
	total := 0
	for _, t := range snap.Transitions {
		if t.FromZoneID == t.ToZoneID {
			continue
		}
		incoming[t.ToZoneID] += t.Count
		total += t.Count
	}
	share := map[uuid.UUID]float64{}
	if total > 0 && len(snap.Zones) > 0 {
		avg := float64(total) / float64(len(snap.Zones))
		for _, z := range snap.Zones {
			share[z.ID] = float64(incoming[z.ID]) / avg
		}
	} else {
		for _, z := range snap.Zones {
			share[z.ID] = 1.0
		}
	}
	return productPerf, zonePerf, share
}
