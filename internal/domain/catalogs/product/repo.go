package product

import (
	"context"

	"partsync/internal/core/id"
)

// Repository defines storage operations for products and BOMs.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	List(ctx context.Context, activeOnly bool) ([]Product, error)

	// SaveBom replaces the product's BOM lines.
	SaveBom(ctx context.Context, productID id.ID, items []BomItem) error

	// GetBom returns the BOM lines for one product.
	GetBom(ctx context.Context, productID id.ID) ([]BomItem, error)

	// GetBoms returns BOM lines for several products keyed by product.
	GetBoms(ctx context.Context, productIDs []id.ID) (map[id.ID][]BomItem, error)
}
