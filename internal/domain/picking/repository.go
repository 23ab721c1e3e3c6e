package picking

import (
	"context"

	"partsync/internal/core/id"
)

// Filter narrows task listings.
type Filter struct {
	Status []TaskStatus
	Limit  int
	Offset int
}

// Repository persists picking tasks and their items.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, taskID id.ID) (*Task, error)
	// GetBySalesOrder returns NotFound when no task exists yet; the
	// one-task-per-sales-order rule builds on it.
	GetBySalesOrder(ctx context.Context, salesOrderID id.ID) (*Task, error)
	List(ctx context.Context, filter Filter) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	UpdateItem(ctx context.Context, item *Item) error
}
