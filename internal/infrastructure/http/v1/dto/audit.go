package dto

import (
	"partsync/internal/domain/audit"
)

// UpdateAuditRequest drives the audit lifecycle. Counts may be
// submitted in batches; setting status to COMPLETED closes the audit
// and, when adjustInventory is set, posts ADJUSTMENT movements for
// every discrepancy.
type UpdateAuditRequest struct {
	Status          audit.Status      `json:"status,omitempty"`
	AdjustInventory bool              `json:"adjustInventory,omitempty"`
	Counts          []audit.CountLine `json:"counts,omitempty"`
}
