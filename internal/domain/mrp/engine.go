package mrp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"partsync/internal/core/id"
	"partsync/internal/core/tx"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/ledger"
	"partsync/internal/domain/notify"
	"partsync/pkg/logger"
)

// PartCatalog is the read-only part master-data lookup the engine needs.
type PartCatalog interface {
	Lookup(ctx context.Context, partIDs []id.ID) (map[id.ID]part.Part, error)
	List(ctx context.Context, filter part.Filter) ([]part.Part, error)
}

// InventorySource reads stock snapshots. The engine never mutates the
// ledger; it only reads it.
type InventorySource interface {
	Snapshot(ctx context.Context, partIDs []id.ID) (map[id.ID]ledger.Inventory, error)
}

// Engine runs the netting computation and persists results.
type Engine struct {
	aggregator *Aggregator
	supply     SupplySource
	parts      PartCatalog
	stock      InventorySource
	results    ResultRepository
	txManager  tx.Manager
	notifier   notify.Notifier
}

// NewEngine creates the netting engine.
func NewEngine(
	aggregator *Aggregator,
	supply SupplySource,
	parts PartCatalog,
	stock InventorySource,
	results ResultRepository,
	txManager tx.Manager,
	notifier notify.Notifier,
) *Engine {
	return &Engine{
		aggregator: aggregator,
		supply:     supply,
		parts:      parts,
		stock:      stock,
		results:    results,
		txManager:  txManager,
		notifier:   notifier,
	}
}

// RunSummary reports the outcome of a recomputation.
type RunSummary struct {
	Count     int             `json:"count"`
	ByUrgency map[Urgency]int `json:"byUrgency"`
	Results   []Result        `json:"results"`
	RanAt     time.Time       `json:"ranAt"`
}

// Run performs a full recomputation. Prior PENDING rows are replaced in
// the same transaction that inserts the new set, so a failed run never
// leaves the table half-cleared. Rows already consumed by the
// consolidator (status ORDERED) survive.
func (e *Engine) Run(ctx context.Context) (*RunSummary, error) {
	asOf := time.Now().UTC()

	demand, err := e.aggregator.AggregateDemand(ctx)
	if err != nil {
		return nil, err
	}
	incoming, err := e.supply.IncomingSupply(ctx)
	if err != nil {
		return nil, err
	}
	results, err := e.net(ctx, demand, incoming, asOf, true)
	if err != nil {
		return nil, err
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return e.results.ReplaceAll(ctx, results)
	})
	if err != nil {
		return nil, fmt.Errorf("persist mrp results: %w", err)
	}

	summary := summarize(results, asOf)
	logger.Info(ctx, "mrp recomputation finished",
		"count", summary.Count, "critical", summary.ByUrgency[UrgencyCritical])
	e.notifier.Notify(ctx, notify.Event{
		Kind:    "mrp.run",
		Message: "MRP recomputation finished",
		Fields:  map[string]any{"count": summary.Count},
	})
	return summary, nil
}

// RunForSalesOrder recomputes results attributed to one sales order
// without disturbing unrelated rows. Other orders' contributions still
// count toward gross requirement so the netting stays correct.
func (e *Engine) RunForSalesOrder(ctx context.Context, salesOrderID id.ID) (*RunSummary, error) {
	asOf := time.Now().UTC()

	demand, err := e.aggregator.AggregateDemand(ctx)
	if err != nil {
		return nil, err
	}

	// Keep only parts this sales order contributes to.
	scoped := make(map[id.ID]PartDemand)
	for partID, d := range demand {
		for _, contrib := range d.Orders {
			if contrib.SalesOrderID == salesOrderID {
				scoped[partID] = d
				break
			}
		}
	}

	incoming, err := e.supply.IncomingSupply(ctx)
	if err != nil {
		return nil, err
	}
	results, err := e.net(ctx, scoped, incoming, asOf, false)
	if err != nil {
		return nil, err
	}
	for i := range results {
		soID := salesOrderID
		results[i].SalesOrderID = &soID
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return e.results.ReplaceForSalesOrder(ctx, salesOrderID, results)
	})
	if err != nil {
		return nil, fmt.Errorf("persist mrp results: %w", err)
	}

	return summarize(results, asOf), nil
}

// net applies the netting algorithm per part:
//
//	availableStock   = currentQty + incomingQty − safetyStock
//	netRequirement   = max(0, grossRequirement − availableStock)
//	suggestedOrderQty = net > 0 ? max(net, minOrderQty) : 0
//	suggestedOrderDate = earliestDueDate − leadTimeDays (when net > 0)
//
// With includeReorderPoint, active parts below their reorder point are
// added even without sales-order demand; they carry no due date and
// classify LOW.
func (e *Engine) net(ctx context.Context, demand map[id.ID]PartDemand, incoming map[id.ID]types.Quantity, asOf time.Time, includeReorderPoint bool) ([]Result, error) {
	partIDs := make([]id.ID, 0, len(demand))
	for partID := range demand {
		partIDs = append(partIDs, partID)
	}

	if includeReorderPoint {
		triggered, err := e.parts.List(ctx, part.Filter{ActiveOnly: true})
		if err != nil {
			return nil, fmt.Errorf("list parts: %w", err)
		}
		for _, p := range triggered {
			if p.ReorderPoint.IsPositive() {
				if _, ok := demand[p.ID]; !ok {
					demand[p.ID] = PartDemand{}
					partIDs = append(partIDs, p.ID)
				}
			}
		}
	}
	if len(partIDs) == 0 {
		return nil, nil
	}

	parts, err := e.parts.Lookup(ctx, partIDs)
	if err != nil {
		return nil, fmt.Errorf("lookup parts: %w", err)
	}
	stock, err := e.stock.Snapshot(ctx, partIDs)
	if err != nil {
		return nil, fmt.Errorf("snapshot inventory: %w", err)
	}

	var results []Result
	for _, partID := range partIDs {
		p, ok := parts[partID]
		if !ok || !p.Active {
			continue
		}
		d := demand[partID]
		inv := stock[partID]
		in := incoming[partID]

		available := inv.CurrentQty + in - p.SafetyStock
		gross := d.GrossRequirement
		floor := gross
		if floor < p.ReorderPoint {
			// Reorder point acts as a demand floor for replenishment-only parts.
			floor = p.ReorderPoint
		}
		net := floor - available
		if net < 0 {
			net = 0
		}
		if net == 0 && gross == 0 {
			continue
		}

		result := Result{
			ID:               id.New(),
			PartID:           partID,
			GrossRequirement: gross,
			CurrentStock:     inv.CurrentQty,
			IncomingQty:      in,
			SafetyStock:      p.SafetyStock,
			NetRequirement:   net,
			EarliestDueDate:  d.EarliestDueDate,
			Status:           ResultPending,
			ComputedAt:       asOf,
		}
		if net > 0 {
			result.SuggestedOrderQty = net
			if result.SuggestedOrderQty < p.MinOrderQty {
				result.SuggestedOrderQty = p.MinOrderQty
			}
			if d.EarliestDueDate != nil {
				orderDate := d.EarliestDueDate.AddDate(0, 0, -p.LeadTimeDays)
				result.SuggestedOrderDate = &orderDate
			}
		}
		result.Urgency = ClassifyUrgency(result.SuggestedOrderDate, asOf)
		if net == 0 {
			result.Urgency = UrgencyLow
		}

		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return urgencyRank(results[i].Urgency) < urgencyRank(results[j].Urgency)
	})
	return results, nil
}

func urgencyRank(u Urgency) int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 2
	default:
		return 3
	}
}

func summarize(results []Result, asOf time.Time) *RunSummary {
	summary := &RunSummary{
		Count:     len(results),
		ByUrgency: make(map[Urgency]int, 4),
		Results:   results,
		RanAt:     asOf,
	}
	for _, r := range results {
		summary.ByUrgency[r.Urgency]++
	}
	return summary
}

// List returns persisted results matching the filter.
func (e *Engine) List(ctx context.Context, filter ResultFilter) ([]Result, error) {
	return e.results.List(ctx, filter)
}
