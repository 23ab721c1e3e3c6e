package dto

import (
	"time"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
	"partsync/internal/domain/purchase"
)

// OrderItemRequest is one part line in a purchase order payload.
type OrderItemRequest struct {
	PartID       id.ID          `json:"partId" binding:"required"`
	OrderQty     types.Quantity `json:"orderQty" binding:"required"`
	UnitPrice    types.Money    `json:"unitPrice"`
	SalesOrderID *id.ID         `json:"salesOrderId,omitempty"`
}

// CreateOrderRequest for POST /orders. Manual purchase order creation;
// consolidation uses /orders/from-mrp instead.
type CreateOrderRequest struct {
	SupplierID   id.ID              `json:"supplierId" binding:"required"`
	ProjectName  string             `json:"projectName,omitempty"`
	Status       string             `json:"status,omitempty"`
	OrderDate    *time.Time         `json:"orderDate,omitempty"`
	ExpectedDate *time.Time         `json:"expectedDate,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	Items        []OrderItemRequest `json:"items" binding:"required"`
}

// ToEntity converts the request to a new purchase order.
func (r CreateOrderRequest) ToEntity(createdBy string) *purchase.Order {
	o := &purchase.Order{
		SupplierID:  r.SupplierID,
		ProjectName: r.ProjectName,
		Status:      purchase.Status(r.Status),
		Notes:       r.Notes,
		CreatedBy:   createdBy,
	}
	if r.OrderDate != nil {
		o.OrderDate = *r.OrderDate
	}
	if r.ExpectedDate != nil {
		o.ExpectedDate = *r.ExpectedDate
	}
	for _, item := range r.Items {
		o.Items = append(o.Items, purchase.OrderItem{
			PartID:       item.PartID,
			OrderQty:     item.OrderQty,
			UnitPrice:    item.UnitPrice,
			SalesOrderID: item.SalesOrderID,
		})
	}
	return o
}

// ReceiveRequest for POST /orders/:id/receive.
type ReceiveRequest struct {
	Items []ReceiveItemRequest `json:"items" binding:"required"`
}

// ReceiveItemRequest is one received line.
type ReceiveItemRequest struct {
	OrderItemID id.ID          `json:"orderItemId" binding:"required"`
	ReceivedQty types.Quantity `json:"receivedQty" binding:"required"`
}

// ToLines converts the request to domain receive lines.
func (r ReceiveRequest) ToLines() []purchase.ReceiveLine {
	lines := make([]purchase.ReceiveLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, purchase.ReceiveLine{
			ItemID:   item.OrderItemID,
			Quantity: item.ReceivedQty,
		})
	}
	return lines
}
