// Package part provides the part master-data catalog.
package part

import (
	"context"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// Part is a purchasable component. Code is immutable identity;
// the commercial attributes are mutable.
type Part struct {
	ID              id.ID          `db:"id" json:"id"`
	Code            string         `db:"code" json:"code"`
	Name            string         `db:"name" json:"name"`
	Unit            string         `db:"unit" json:"unit"`
	UnitPrice       types.Money    `db:"unit_price" json:"unitPrice"`
	SafetyStock     types.Quantity `db:"safety_stock" json:"safetyStock"`
	ReorderPoint    types.Quantity `db:"reorder_point" json:"reorderPoint"`
	MinOrderQty     types.Quantity `db:"min_order_qty" json:"minOrderQty"`
	LeadTimeDays    int            `db:"lead_time_days" json:"leadTimeDays"`
	SupplierID      *id.ID         `db:"supplier_id" json:"supplierId,omitempty"`
	StorageLocation string         `db:"storage_location" json:"storageLocation,omitempty"`
	Active          bool           `db:"active" json:"active"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// New creates a part with generated ID and timestamps.
func New(code, name, unit string) *Part {
	now := time.Now().UTC()
	return &Part{
		ID:        id.New(),
		Code:      code,
		Name:      name,
		Unit:      unit,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks part invariants.
func (p *Part) Validate(ctx context.Context) error {
	if p.Code == "" {
		return apperror.NewValidation("part code is required").WithDetail("field", "code")
	}
	if p.Name == "" {
		return apperror.NewValidation("part name is required").WithDetail("field", "name")
	}
	if p.SafetyStock.IsNegative() || p.ReorderPoint.IsNegative() || p.MinOrderQty.IsNegative() {
		return apperror.NewValidation("stock thresholds cannot be negative")
	}
	if p.LeadTimeDays < 0 {
		return apperror.NewValidation("lead time cannot be negative").WithDetail("field", "leadTimeDays")
	}
	return nil
}
