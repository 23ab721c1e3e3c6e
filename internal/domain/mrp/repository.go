package mrp

import (
	"context"

	"partsync/internal/core/id"
)

// ResultFilter narrows result listings.
type ResultFilter struct {
	PartID       *id.ID
	SalesOrderID *id.ID
	Status       []ResultStatus
	Urgency      []Urgency
	Limit        int
	Offset       int
}

// ResultRepository persists netting results.
//
// ReplaceAll and ReplaceForSalesOrder implement the recomputation
// policy: rows already consumed (status ORDERED) survive a full run,
// and a scoped run must not disturb results of unrelated sales orders.
type ResultRepository interface {
	// ReplaceAll deletes every PENDING row and inserts the new set as
	// one atomic operation.
	ReplaceAll(ctx context.Context, results []Result) error

	// ReplaceForSalesOrder deletes PENDING rows attributed to the given
	// sales order and inserts the new set.
	ReplaceForSalesOrder(ctx context.Context, salesOrderID id.ID, results []Result) error

	GetByIDs(ctx context.Context, ids []id.ID) ([]Result, error)
	List(ctx context.Context, filter ResultFilter) ([]Result, error)
	UpdateStatus(ctx context.Context, ids []id.ID, status ResultStatus) error
}
