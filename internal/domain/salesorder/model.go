// Package salesorder provides sales orders, the demand source for MRP
// and picking.
package salesorder

import (
	"context"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// Status of a sales order.
type Status string

const (
	StatusReceived     Status = "RECEIVED"
	StatusConfirmed    Status = "CONFIRMED"
	StatusInProduction Status = "IN_PRODUCTION"
	StatusCompleted    Status = "COMPLETED"
	StatusCancelled    Status = "CANCELLED"
)

// OpenStatuses is the default set that contributes demand.
// Cancelled and completed orders never do.
var OpenStatuses = []Status{StatusReceived, StatusConfirmed, StatusInProduction}

// SalesOrder is a customer order for finished products.
type SalesOrder struct {
	ID           id.ID     `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	CustomerName string    `db:"customer_name" json:"customerName"`
	ProjectName  string    `db:"project_name" json:"projectName,omitempty"`
	Status       Status    `db:"status" json:"status"`
	OrderDate    time.Time `db:"order_date" json:"orderDate"`
	DueDate      time.Time `db:"due_date" json:"dueDate"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	Items []Item `db:"-" json:"items"`
}

// Item is one product line on a sales order.
type Item struct {
	ID           id.ID          `db:"id" json:"id"`
	SalesOrderID id.ID          `db:"sales_order_id" json:"salesOrderId"`
	ProductID    id.ID          `db:"product_id" json:"productId"`
	OrderQty     types.Quantity `db:"order_qty" json:"orderQty"`
	ProducedQty  types.Quantity `db:"produced_qty" json:"producedQty"`
}

// IsOpen reports whether the order contributes demand.
func (o *SalesOrder) IsOpen() bool {
	for _, s := range OpenStatuses {
		if o.Status == s {
			return true
		}
	}
	return false
}

// Validate checks sales order invariants.
func (o *SalesOrder) Validate(ctx context.Context) error {
	if o.CustomerName == "" {
		return apperror.NewValidation("customer name is required").WithDetail("field", "customerName")
	}
	if o.DueDate.IsZero() {
		return apperror.NewValidation("due date is required").WithDetail("field", "dueDate")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("sales order needs at least one item")
	}
	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("item product is required").WithDetail("line", i+1)
		}
		if !item.OrderQty.IsPositive() {
			return apperror.NewValidation("order quantity must be positive").WithDetail("line", i+1)
		}
	}
	return nil
}
