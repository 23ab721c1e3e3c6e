package mrp

import (
	"context"
	"fmt"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/product"
	"partsync/internal/domain/salesorder"
)

// DemandSource supplies the open sales-order items that contribute demand.
type DemandSource interface {
	OpenItems(ctx context.Context) ([]salesorder.OpenItem, error)
}

// BomSource supplies bills of materials keyed by product.
type BomSource interface {
	BomsFor(ctx context.Context, productIDs []id.ID) (map[id.ID][]product.BomItem, error)
}

// SupplySource supplies unreceived open purchase-order quantities per part.
type SupplySource interface {
	IncomingSupply(ctx context.Context) (map[id.ID]types.Quantity, error)
}

// Aggregator explodes open sales orders through product BOMs into gross
// per-part requirements.
type Aggregator struct {
	orders DemandSource
	boms   BomSource
}

// NewAggregator creates a demand aggregator.
func NewAggregator(orders DemandSource, boms BomSource) *Aggregator {
	return &Aggregator{orders: orders, boms: boms}
}

// AggregateDemand walks every open sales-order item through its
// product's BOM. Each BOM line contributes
// ceil(orderQty × quantityPerUnit × (1 + lossRate)) to the part's gross
// requirement; the earliest due date across contributing orders is kept
// for order-date back-calculation.
func (a *Aggregator) AggregateDemand(ctx context.Context) (map[id.ID]PartDemand, error) {
	items, err := a.orders.OpenItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open sales order items: %w", err)
	}
	if len(items) == 0 {
		return map[id.ID]PartDemand{}, nil
	}

	productIDs := make([]id.ID, 0, len(items))
	seen := make(map[id.ID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}

	boms, err := a.boms.BomsFor(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load boms: %w", err)
	}

	demand := make(map[id.ID]PartDemand)
	for _, item := range items {
		for _, line := range boms[item.ProductID] {
			required := line.RequiredFor(item.OrderQty)
			if !required.IsPositive() {
				continue
			}

			d := demand[line.PartID]
			d.GrossRequirement += required
			if d.EarliestDueDate == nil || item.DueDate.Before(*d.EarliestDueDate) {
				due := item.DueDate
				d.EarliestDueDate = &due
			}
			d.Orders = appendContribution(d.Orders, DemandOrder{
				SalesOrderID: item.SalesOrderID,
				OrderCode:    item.OrderCode,
				ProjectName:  item.ProjectName,
				DueDate:      item.DueDate,
				Quantity:     required,
			})
			demand[line.PartID] = d
		}
	}

	return demand, nil
}

// appendContribution merges same-order contributions into one entry.
func appendContribution(orders []DemandOrder, c DemandOrder) []DemandOrder {
	for i := range orders {
		if orders[i].SalesOrderID == c.SalesOrderID {
			orders[i].Quantity += c.Quantity
			if c.DueDate.Before(orders[i].DueDate) {
				orders[i].DueDate = c.DueDate
			}
			return orders
		}
	}
	return append(orders, c)
}
