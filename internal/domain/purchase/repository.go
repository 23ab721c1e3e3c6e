package purchase

import (
	"context"
	"time"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// Filter narrows order listings.
type Filter struct {
	SupplierID *id.ID
	Status     []Status
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// IncomingLine is one open purchase order line contributing incoming
// supply to MRP netting.
type IncomingLine struct {
	PartID       id.ID          `db:"part_id"`
	Remaining    types.Quantity `db:"remaining"`
	ExpectedDate time.Time      `db:"expected_date"`
}

// Repository persists purchase orders and their items.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	GetByCode(ctx context.Context, code string) (*Order, error)
	List(ctx context.Context, filter Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID id.ID, status Status) error
	UpdateItem(ctx context.Context, item *OrderItem) error

	// ListIncoming returns unreceived quantities of all open order lines,
	// one row per line, for incoming-supply aggregation.
	ListIncoming(ctx context.Context) ([]IncomingLine, error)
}
