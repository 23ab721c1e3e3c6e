// Package product provides the finished-product catalog and its
// bill of materials.
package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// Product is a finished good built from parts.
type Product struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	BomItems []BomItem `db:"-" json:"bomItems,omitempty"`
}

// BomItem maps a product to one required part. Unique per product+part.
type BomItem struct {
	ID              id.ID        `db:"id" json:"id"`
	ProductID       id.ID        `db:"product_id" json:"productId"`
	PartID          id.ID        `db:"part_id" json:"partId"`
	QuantityPerUnit types.Factor `db:"quantity_per_unit" json:"quantityPerUnit"`
	LossRate        types.Factor `db:"loss_rate" json:"lossRate"`
}

// RequiredFor returns the whole-unit part requirement to build orderQty
// units: ceil(orderQty × quantityPerUnit × (1 + lossRate)). Rounding is
// always up; under-ordering is the unsafe direction.
func (b *BomItem) RequiredFor(orderQty types.Quantity) types.Quantity {
	factor := b.QuantityPerUnit.Mul(decimal.NewFromInt(1).Add(b.LossRate))
	return types.CeilQuantity(orderQty.Decimal().Mul(factor))
}

// New creates a product with generated ID and timestamps.
func New(code, name string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        id.New(),
		Code:      code,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks product invariants, including BOM uniqueness.
func (p *Product) Validate(ctx context.Context) error {
	if p.Code == "" {
		return apperror.NewValidation("product code is required").WithDetail("field", "code")
	}
	if p.Name == "" {
		return apperror.NewValidation("product name is required").WithDetail("field", "name")
	}

	seen := make(map[id.ID]bool, len(p.BomItems))
	for i, item := range p.BomItems {
		if id.IsNil(item.PartID) {
			return apperror.NewValidation("bom item part is required").WithDetail("line", i+1)
		}
		if seen[item.PartID] {
			return apperror.NewDuplicate("bom item", "part", item.PartID.String())
		}
		seen[item.PartID] = true

		if !item.QuantityPerUnit.IsPositive() {
			return apperror.NewValidation("quantity per unit must be positive").WithDetail("line", i+1)
		}
		if item.LossRate.IsNegative() {
			return apperror.NewValidation("loss rate cannot be negative").WithDetail("line", i+1)
		}
	}

	return nil
}
