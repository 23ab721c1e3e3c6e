// Package mrp implements material requirements planning: demand
// aggregation over sales-order BOM explosion, netting against stock and
// incoming supply, and consolidation of accepted suggestions into
// purchase orders.
package mrp

import (
	"time"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
)

// Urgency classifies how soon a suggested order must be placed.
type Urgency string

const (
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyLow      Urgency = "LOW"
)

// ClassifyUrgency buckets the days remaining until orderDate, measured
// in whole calendar days from asOf. A nil orderDate (pure reorder-point
// trigger, no contributing due date) defaults to LOW.
func ClassifyUrgency(orderDate *time.Time, asOf time.Time) Urgency {
	if orderDate == nil {
		return UrgencyLow
	}

	days := int(daysBetween(asOf, *orderDate))
	switch {
	case days <= 0:
		return UrgencyCritical
	case days <= 7:
		return UrgencyHigh
	case days <= 14:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int64 {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int64(bu.Sub(au).Hours() / 24)
}

// ResultStatus tracks whether a suggestion has been consumed.
type ResultStatus string

const (
	ResultPending ResultStatus = "PENDING"
	ResultOrdered ResultStatus = "ORDERED"
)

// Result is one netting outcome row, per (part, contributing sales
// order) for scoped runs or per part with a nil sales order for full
// aggregate runs. Stock figures are snapshots taken at computation time.
type Result struct {
	ID                 id.ID          `db:"id" json:"id"`
	PartID             id.ID          `db:"part_id" json:"partId"`
	SalesOrderID       *id.ID         `db:"sales_order_id" json:"salesOrderId,omitempty"`
	GrossRequirement   types.Quantity `db:"gross_requirement" json:"grossRequirement"`
	CurrentStock       types.Quantity `db:"current_stock" json:"currentStock"`
	IncomingQty        types.Quantity `db:"incoming_qty" json:"incomingQty"`
	SafetyStock        types.Quantity `db:"safety_stock" json:"safetyStock"`
	NetRequirement     types.Quantity `db:"net_requirement" json:"netRequirement"`
	SuggestedOrderQty  types.Quantity `db:"suggested_order_qty" json:"suggestedOrderQty"`
	SuggestedOrderDate *time.Time     `db:"suggested_order_date" json:"suggestedOrderDate,omitempty"`
	EarliestDueDate    *time.Time     `db:"earliest_due_date" json:"earliestDueDate,omitempty"`
	Urgency            Urgency        `db:"urgency" json:"urgency"`
	Status             ResultStatus   `db:"status" json:"status"`
	ComputedAt         time.Time      `db:"computed_at" json:"computedAt"`
}

// DemandOrder is one sales order's contribution to a part's demand.
type DemandOrder struct {
	SalesOrderID id.ID
	OrderCode    string
	ProjectName  string
	DueDate      time.Time
	Quantity     types.Quantity
}

// PartDemand is the aggregated gross requirement for one part.
type PartDemand struct {
	GrossRequirement types.Quantity
	EarliestDueDate  *time.Time
	Orders           []DemandOrder
}
