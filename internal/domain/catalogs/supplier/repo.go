package supplier

import (
	"context"

	"partsync/internal/core/id"
)

// Repository defines storage operations for suppliers.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
	GetByIDs(ctx context.Context, supplierIDs []id.ID) ([]Supplier, error)
	List(ctx context.Context, activeOnly bool) ([]Supplier, error)
}
