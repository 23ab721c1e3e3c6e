package dto

import (
	"partsync/internal/core/id"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/part"
)

// CreatePartRequest for POST /parts.
type CreatePartRequest struct {
	Code            string         `json:"code" binding:"required"`
	Name            string         `json:"name" binding:"required"`
	Unit            string         `json:"unit"`
	UnitPrice       types.Money    `json:"unitPrice"`
	SafetyStock     types.Quantity `json:"safetyStock"`
	ReorderPoint    types.Quantity `json:"reorderPoint"`
	MinOrderQty     types.Quantity `json:"minOrderQty"`
	LeadTimeDays    int            `json:"leadTimeDays"`
	SupplierID      *id.ID         `json:"supplierId,omitempty"`
	StorageLocation string         `json:"storageLocation,omitempty"`
}

// ToEntity converts the request to a new part.
func (r CreatePartRequest) ToEntity() *part.Part {
	p := part.New(r.Code, r.Name, r.Unit)
	p.UnitPrice = r.UnitPrice
	p.SafetyStock = r.SafetyStock
	p.ReorderPoint = r.ReorderPoint
	p.MinOrderQty = r.MinOrderQty
	p.LeadTimeDays = r.LeadTimeDays
	p.SupplierID = r.SupplierID
	p.StorageLocation = r.StorageLocation
	return p
}

// UpdatePartRequest for PUT /parts/:id. Code is immutable and absent.
type UpdatePartRequest struct {
	Name            string         `json:"name" binding:"required"`
	Unit            string         `json:"unit"`
	UnitPrice       types.Money    `json:"unitPrice"`
	SafetyStock     types.Quantity `json:"safetyStock"`
	ReorderPoint    types.Quantity `json:"reorderPoint"`
	MinOrderQty     types.Quantity `json:"minOrderQty"`
	LeadTimeDays    int            `json:"leadTimeDays"`
	SupplierID      *id.ID         `json:"supplierId,omitempty"`
	StorageLocation string         `json:"storageLocation,omitempty"`
	Active          *bool          `json:"active,omitempty"`
}

// ApplyTo copies mutable fields onto an existing part.
func (r UpdatePartRequest) ApplyTo(p *part.Part) {
	p.Name = r.Name
	p.Unit = r.Unit
	p.UnitPrice = r.UnitPrice
	p.SafetyStock = r.SafetyStock
	p.ReorderPoint = r.ReorderPoint
	p.MinOrderQty = r.MinOrderQty
	p.LeadTimeDays = r.LeadTimeDays
	p.SupplierID = r.SupplierID
	p.StorageLocation = r.StorageLocation
	if r.Active != nil {
		p.Active = *r.Active
	}
}

// MovementRequest for POST /inventory/movements. Manual stock mutation
// through the ledger.
type MovementRequest struct {
	PartID   id.ID          `json:"partId" binding:"required"`
	Type     string         `json:"type" binding:"required"`
	Quantity types.Quantity `json:"quantity"`
	Reason   string         `json:"reason,omitempty"`
}

// ReservationRequest for reserving or releasing stock.
type ReservationRequest struct {
	PartID   id.ID          `json:"partId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`
}
