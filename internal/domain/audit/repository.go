package audit

import (
	"context"

	"partsync/internal/core/id"
)

// Filter narrows audit listings.
type Filter struct {
	Status []Status
	Limit  int
	Offset int
}

// Repository persists audit records, items and discrepancy logs.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, auditID id.ID) (*Record, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
	Update(ctx context.Context, record *Record) error
	UpdateItem(ctx context.Context, item *Item) error

	// ActiveAuditParts maps each part covered by a PLANNED or
	// IN_PROGRESS audit to that audit's ID. One active audit per part.
	ActiveAuditParts(ctx context.Context) (map[id.ID]id.ID, error)

	AppendDiscrepancy(ctx context.Context, log *DiscrepancyLog) error
	ListDiscrepancies(ctx context.Context, auditID id.ID) ([]DiscrepancyLog, error)
	SetDiscrepancyStatus(ctx context.Context, auditID id.ID, status DiscrepancyStatus) error
}
