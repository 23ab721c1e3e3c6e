package part

import (
	"context"

	"partsync/internal/core/id"
)

// Repository defines storage operations for parts.
type Repository interface {
	Create(ctx context.Context, p *Part) error
	Update(ctx context.Context, p *Part) error
	GetByID(ctx context.Context, partID id.ID) (*Part, error)
	GetByCode(ctx context.Context, code string) (*Part, error)
	GetByIDs(ctx context.Context, partIDs []id.ID) ([]Part, error)
	List(ctx context.Context, filter Filter) ([]Part, error)
	Deactivate(ctx context.Context, partID id.ID) error
}

// Filter narrows part listings.
type Filter struct {
	ActiveOnly bool
	SupplierID *id.ID
	Search     string // matches code or name
	Limit      int
	Offset     int
}
