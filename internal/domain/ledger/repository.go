package ledger

import (
	"context"
	"time"

	"partsync/internal/core/id"
)

// Repository defines storage operations for the ledger.
type Repository interface {
	// GetInventory returns the inventory row for a part.
	GetInventory(ctx context.Context, partID id.ID) (*Inventory, error)

	// GetInventoryForUpdate returns the inventory row with a row lock.
	// Must be called within a transaction.
	GetInventoryForUpdate(ctx context.Context, partID id.ID) (*Inventory, error)

	// ListInventories returns inventory rows for the given parts,
	// or all rows when partIDs is empty.
	ListInventories(ctx context.Context, partIDs []id.ID) ([]Inventory, error)

	// CreateInventory inserts a zero-quantity row for a new part.
	CreateInventory(ctx context.Context, inv *Inventory) error

	// UpdateInventory writes quantity columns and metadata dates.
	UpdateInventory(ctx context.Context, inv *Inventory) error

	// AppendTransaction inserts a ledger entry. Entries are never
	// updated or deleted.
	AppendTransaction(ctx context.Context, txn *Transaction) error

	// ListTransactionsByPart returns entries for a part, newest first.
	ListTransactionsByPart(ctx context.Context, partID id.ID, filter TransactionFilter) ([]Transaction, error)

	// ListTransactionsByReference returns entries created by a document.
	ListTransactionsByReference(ctx context.Context, ref Reference) ([]Transaction, error)
}

// TransactionFilter narrows transaction history queries.
type TransactionFilter struct {
	Type     *MovementType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
