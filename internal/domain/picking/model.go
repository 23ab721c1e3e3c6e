// Package picking explodes a sales order's BOM into a location-ordered
// pick list and drives stock movements as items are picked.
package picking

import (
	"time"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// TaskStatus of a picking task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// ItemStatus of one pick line.
type ItemStatus string

const (
	ItemPending    ItemStatus = "PENDING"
	ItemInProgress ItemStatus = "IN_PROGRESS"
	ItemPicked     ItemStatus = "PICKED"
	ItemSkipped    ItemStatus = "SKIPPED"
)

// Task is the pick list for one sales order. One task per sales order.
type Task struct {
	ID           id.ID      `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	SalesOrderID id.ID      `db:"sales_order_id" json:"salesOrderId"`
	Status       TaskStatus `db:"status" json:"status"`
	CreatedBy    string     `db:"created_by" json:"createdBy,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`

	Items []Item `db:"-" json:"items"`
}

// Item is one part to pick. Sequence is the walking-route position.
// PickTxnID links the OUTBOUND ledger entry of a picked item; it is
// what makes the pick revertible.
type Item struct {
	ID              id.ID          `db:"id" json:"id"`
	TaskID          id.ID          `db:"task_id" json:"taskId"`
	PartID          id.ID          `db:"part_id" json:"partId"`
	RequiredQty     types.Quantity `db:"required_qty" json:"requiredQty"`
	PickedQty       types.Quantity `db:"picked_qty" json:"pickedQty"`
	StorageLocation string         `db:"storage_location" json:"storageLocation,omitempty"`
	Sequence        int            `db:"sequence" json:"sequence"`
	Status          ItemStatus     `db:"status" json:"status"`
	PickTxnID       *id.ID         `db:"pick_txn_id" json:"-"`
}
