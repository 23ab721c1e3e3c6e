// Package ledger provides the inventory quantity ledger. It is the only
// component allowed to mutate stock quantities, and it always does so by
// appending a transaction that records before/after state.
package ledger

import (
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// MovementType classifies a ledger transaction.
type MovementType string

const (
	MovementInbound    MovementType = "INBOUND"
	MovementOutbound   MovementType = "OUTBOUND"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementTransfer   MovementType = "TRANSFER"
)

// ReferenceType identifies the originating document of a movement.
type ReferenceType string

const (
	RefOrder         ReferenceType = "ORDER"
	RefSalesOrder    ReferenceType = "SALES_ORDER"
	RefAudit         ReferenceType = "AUDIT"
	RefAuditRevert   ReferenceType = "AUDIT_REVERT"
	RefPicking       ReferenceType = "PICKING"
	RefPickingRevert ReferenceType = "PICKING_REVERT"
	RefManual        ReferenceType = "MANUAL"
)

// Reference points at the document that caused a movement.
type Reference struct {
	Type ReferenceType `db:"reference_type" json:"referenceType"`
	ID   id.ID         `db:"reference_id" json:"referenceId"`
}

// Inventory is the per-part quantity row, 1:1 with Part.
// currentQty is mutated only as a side effect of a Transaction.
// reservedQty and incomingQty are planning counters; the date columns
// are informational metadata and never gate correctness.
type Inventory struct {
	PartID           id.ID          `db:"part_id" json:"partId"`
	CurrentQty       types.Quantity `db:"current_qty" json:"currentQty"`
	ReservedQty      types.Quantity `db:"reserved_qty" json:"reservedQty"`
	IncomingQty      types.Quantity `db:"incoming_qty" json:"incomingQty"`
	LastInboundDate  *time.Time     `db:"last_inbound_date" json:"lastInboundDate,omitempty"`
	LastOutboundDate *time.Time     `db:"last_outbound_date" json:"lastOutboundDate,omitempty"`
	LastAuditDate    *time.Time     `db:"last_audit_date" json:"lastAuditDate,omitempty"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// AvailableQty is current minus reserved.
func (inv *Inventory) AvailableQty() types.Quantity {
	return inv.CurrentQty - inv.ReservedQty
}

// Transaction is an append-only ledger entry. For INBOUND/OUTBOUND,
// afterQty − beforeQty equals the signed quantity. For ADJUSTMENT,
// afterQty is the new authoritative value and quantity is |after − before|.
type Transaction struct {
	ID        id.ID          `db:"id" json:"id"`
	Code      string         `db:"code" json:"code"`
	PartID    id.ID          `db:"part_id" json:"partId"`
	Type      MovementType   `db:"type" json:"type"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	BeforeQty types.Quantity `db:"before_qty" json:"beforeQty"`
	AfterQty  types.Quantity `db:"after_qty" json:"afterQty"`
	Reference
	Reason    string    `db:"reason" json:"reason,omitempty"`
	Performer string    `db:"performer" json:"performer,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SignedDelta returns the stock change this transaction applied.
func (t *Transaction) SignedDelta() types.Quantity {
	return t.AfterQty - t.BeforeQty
}

// Movement is a request to mutate stock through the ledger.
type Movement struct {
	PartID    id.ID
	Type      MovementType
	Quantity  types.Quantity
	Reference Reference
	Reason    string
	Performer string
}

// Validate checks movement invariants before it reaches storage.
func (m *Movement) Validate() error {
	if id.IsNil(m.PartID) {
		return apperror.NewValidation("part is required").WithDetail("field", "partId")
	}

	switch m.Type {
	case MovementInbound, MovementOutbound, MovementTransfer:
		if !m.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity")
		}
	case MovementAdjustment:
		// Quantity carries the new authoritative stock value; zero is legal,
		// negative stock is not.
		if m.Quantity.IsNegative() {
			return apperror.NewValidation("adjusted quantity cannot be negative").
				WithDetail("field", "quantity")
		}
	default:
		return apperror.NewValidation("unknown movement type").
			WithDetail("type", string(m.Type))
	}

	if m.Reference.Type == "" {
		return apperror.NewValidation("reference type is required").
			WithDetail("field", "referenceType")
	}

	return nil
}
