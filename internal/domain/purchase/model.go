// Package purchase provides supplier purchase orders and goods receipt.
package purchase

import (
	"context"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// Status of a purchase order.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusOrdered   Status = "ORDERED"
	StatusPartial   Status = "PARTIAL"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// OpenStatuses are the statuses whose items count as incoming supply.
var OpenStatuses = []Status{StatusApproved, StatusOrdered, StatusPartial}

// ItemStatus of one purchase order line.
type ItemStatus string

const (
	ItemPending   ItemStatus = "PENDING"
	ItemOrdered   ItemStatus = "ORDERED"
	ItemPartial   ItemStatus = "PARTIAL"
	ItemCompleted ItemStatus = "COMPLETED"
)

// Order is a supplier-scoped purchase order.
type Order struct {
	ID           id.ID       `db:"id" json:"id"`
	Code         string      `db:"code" json:"code"`
	SupplierID   id.ID       `db:"supplier_id" json:"supplierId"`
	ProjectName  string      `db:"project_name" json:"projectName,omitempty"`
	Status       Status      `db:"status" json:"status"`
	OrderDate    time.Time   `db:"order_date" json:"orderDate"`
	ExpectedDate time.Time   `db:"expected_date" json:"expectedDate"`
	TotalAmount  types.Money `db:"total_amount" json:"totalAmount"`
	Notes        string      `db:"notes" json:"notes,omitempty"`
	CreatedBy    string      `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`

	Items []OrderItem `db:"-" json:"items"`
}

// OrderItem is one part line. UnitPrice is snapshotted at consolidation
// time, not re-derived later. ReceivedQty is monotonically non-decreasing
// and never exceeds OrderQty.
type OrderItem struct {
	ID           id.ID          `db:"id" json:"id"`
	OrderID      id.ID          `db:"order_id" json:"orderId"`
	PartID       id.ID          `db:"part_id" json:"partId"`
	SalesOrderID *id.ID         `db:"sales_order_id" json:"salesOrderId,omitempty"`
	OrderQty     types.Quantity `db:"order_qty" json:"orderQty"`
	ReceivedQty  types.Quantity `db:"received_qty" json:"receivedQty"`
	UnitPrice    types.Money    `db:"unit_price" json:"unitPrice"`
	Amount       types.Money    `db:"amount" json:"amount"`
	Status       ItemStatus     `db:"status" json:"status"`
}

// Remaining returns the quantity still to be received.
func (i *OrderItem) Remaining() types.Quantity {
	return i.OrderQty - i.ReceivedQty
}

// DeriveItemStatus computes the line status from received quantity.
func (i *OrderItem) DeriveItemStatus() ItemStatus {
	switch {
	case i.ReceivedQty >= i.OrderQty:
		return ItemCompleted
	case i.ReceivedQty.IsPositive():
		return ItemPartial
	default:
		if i.Status == ItemOrdered {
			return ItemOrdered
		}
		return ItemPending
	}
}

// DeriveStatus computes the order status from its items. Cancelled and
// draft states are sticky; receipt progress moves ordered orders through
// PARTIAL to COMPLETED.
func (o *Order) DeriveStatus() Status {
	if o.Status == StatusCancelled || o.Status == StatusDraft || o.Status == StatusApproved {
		return o.Status
	}

	received := types.Quantity(0)
	total := types.Quantity(0)
	allDone := len(o.Items) > 0
	for _, item := range o.Items {
		received += item.ReceivedQty
		total += item.OrderQty
		if item.ReceivedQty < item.OrderQty {
			allDone = false
		}
	}

	switch {
	case allDone:
		return StatusCompleted
	case received.IsPositive():
		return StatusPartial
	default:
		return StatusOrdered
	}
}

// Validate checks order invariants.
func (o *Order) Validate(ctx context.Context) error {
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("purchase order needs at least one item")
	}
	for i, item := range o.Items {
		if id.IsNil(item.PartID) {
			return apperror.NewValidation("item part is required").WithDetail("line", i+1)
		}
		if !item.OrderQty.IsPositive() {
			return apperror.NewValidation("order quantity must be positive").WithDetail("line", i+1)
		}
	}
	return nil
}
