package salesorder

import (
	"context"
	"time"

	"partsync/internal/core/id"
)

// Repository defines storage operations for sales orders.
type Repository interface {
	Create(ctx context.Context, o *SalesOrder) error
	Update(ctx context.Context, o *SalesOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*SalesOrder, error)
	List(ctx context.Context, statuses []Status) ([]SalesOrder, error)

	// ListOpenItems returns items of orders whose status is in the
	// open set, with each item's parent order attached.
	ListOpenItems(ctx context.Context, statuses []Status) ([]OpenItem, error)

	SaveItems(ctx context.Context, orderID id.ID, items []Item) error
	GetItems(ctx context.Context, orderID id.ID) ([]Item, error)
}

// OpenItem pairs a demand-contributing item with its order header.
type OpenItem struct {
	Item
	OrderCode   string    `db:"order_code"`
	ProjectName string    `db:"project_name"`
	Status      Status    `db:"status"`
	DueDate     time.Time `db:"due_date"`
}
