// Package audit implements stock-count reconciliation: counted
// quantities compared against system quantities, ledger adjustments for
// discrepancies, and an explicit revert path.
package audit

import (
	"time"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// Type of audit scope.
type Type string

const (
	TypeFull    Type = "FULL"
	TypePartial Type = "PARTIAL"
)

// Status of an audit record.
type Status string

const (
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusReverted   Status = "REVERTED"
	StatusCancelled  Status = "CANCELLED"
)

// Record is one count event over a part subset.
// matchedItems and discrepancyItems are recomputed from item-level
// discrepancies on completion, never tracked independently.
type Record struct {
	ID               id.ID      `db:"id" json:"id"`
	Code             string     `db:"code" json:"code"`
	Type             Type       `db:"type" json:"type"`
	Status           Status     `db:"status" json:"status"`
	AuditDate        time.Time  `db:"audit_date" json:"auditDate"`
	MatchedItems     int        `db:"matched_items" json:"matchedItems"`
	DiscrepancyItems int        `db:"discrepancy_items" json:"discrepancyItems"`
	Adjusted         bool       `db:"adjusted" json:"adjusted"`
	Notes            string     `db:"notes" json:"notes,omitempty"`
	CreatedBy        string     `db:"created_by" json:"createdBy,omitempty"`
	CompletedAt      *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`

	Items []Item `db:"-" json:"items,omitempty"`
}

// Item is one counted part. SystemQty is snapshotted when the audit is
// created; CountedQty is filled during execution. AdjustmentTxnID links
// the ledger adjustment applied on completion, and is what makes the
// audit revertible.
type Item struct {
	ID              id.ID           `db:"id" json:"id"`
	AuditID         id.ID           `db:"audit_id" json:"auditId"`
	PartID          id.ID           `db:"part_id" json:"partId"`
	SystemQty       types.Quantity  `db:"system_qty" json:"systemQty"`
	CountedQty      *types.Quantity `db:"counted_qty" json:"countedQty,omitempty"`
	AdjustmentTxnID *id.ID          `db:"adjustment_txn_id" json:"adjustmentTxnId,omitempty"`
}

// Discrepancy returns countedQty − systemQty, or 0 when uncounted.
func (i *Item) Discrepancy() types.Quantity {
	if i.CountedQty == nil {
		return 0
	}
	return *i.CountedQty - i.SystemQty
}

// DiscrepancyType classifies the direction of a count difference.
type DiscrepancyType string

const (
	Overage  DiscrepancyType = "OVERAGE"
	Shortage DiscrepancyType = "SHORTAGE"
)

// DiscrepancyStatus tracks whether the ledger already reflects the count.
type DiscrepancyStatus string

const (
	// DiscrepancyResolved means the adjustment was applied to the ledger.
	DiscrepancyResolved DiscrepancyStatus = "RESOLVED"
	// DiscrepancyLogged means the difference was recorded without a
	// ledger write (completion with adjustInventory=false).
	DiscrepancyLogged DiscrepancyStatus = "LOGGED"
	// DiscrepancyReverted means the applied adjustment was undone.
	DiscrepancyReverted DiscrepancyStatus = "REVERTED"
)

// DiscrepancyLog records one count difference found on completion.
type DiscrepancyLog struct {
	ID         id.ID             `db:"id" json:"id"`
	AuditID    id.ID             `db:"audit_id" json:"auditId"`
	PartID     id.ID             `db:"part_id" json:"partId"`
	Type       DiscrepancyType   `db:"type" json:"type"`
	Quantity   types.Quantity    `db:"quantity" json:"quantity"`
	SystemQty  types.Quantity    `db:"system_qty" json:"systemQty"`
	CountedQty types.Quantity    `db:"counted_qty" json:"countedQty"`
	Status     DiscrepancyStatus `db:"status" json:"status"`
	CreatedAt  time.Time         `db:"created_at" json:"createdAt"`
}
