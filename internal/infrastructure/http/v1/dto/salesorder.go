package dto

import (
	"time"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
	"partsync/internal/domain/salesorder"
)

// SalesOrderItemRequest is one product line in a sales order payload.
type SalesOrderItemRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	OrderQty  types.Quantity `json:"orderQty" binding:"required"`
}

// CreateSalesOrderRequest for POST /sales-orders.
type CreateSalesOrderRequest struct {
	CustomerName string                  `json:"customerName" binding:"required"`
	ProjectName  string                  `json:"projectName,omitempty"`
	OrderDate    *time.Time              `json:"orderDate,omitempty"`
	DueDate      time.Time               `json:"dueDate" binding:"required"`
	Items        []SalesOrderItemRequest `json:"items" binding:"required"`
}

// ToEntity converts the request to a new sales order.
func (r CreateSalesOrderRequest) ToEntity() *salesorder.SalesOrder {
	o := &salesorder.SalesOrder{
		CustomerName: r.CustomerName,
		ProjectName:  r.ProjectName,
		DueDate:      r.DueDate,
	}
	if r.OrderDate != nil {
		o.OrderDate = *r.OrderDate
	}
	for _, item := range r.Items {
		o.Items = append(o.Items, salesorder.Item{
			ProductID: item.ProductID,
			OrderQty:  item.OrderQty,
		})
	}
	return o
}

// SetStatusRequest for PUT /sales-orders/:id/status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
