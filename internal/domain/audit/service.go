package audit

import (
	"context"
	"fmt"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
	"partsync/internal/core/tx"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/ledger"
	"partsync/pkg/logger"
)

// StockLedger is the slice of the inventory ledger audits depend on.
type StockLedger interface {
	ApplyMovement(ctx context.Context, m ledger.Movement) (*ledger.Transaction, error)
	Reverse(ctx context.Context, original *ledger.Transaction, refType ledger.ReferenceType, reason, performer string) (*ledger.Transaction, error)
	TransactionsFor(ctx context.Context, ref ledger.Reference) ([]ledger.Transaction, error)
	Snapshot(ctx context.Context, partIDs []id.ID) (map[id.ID]ledger.Inventory, error)
}

// PartCatalog resolves the part scope of an audit.
type PartCatalog interface {
	List(ctx context.Context, filter part.Filter) ([]part.Part, error)
}

// CreateRequest scopes a new audit. Empty PartIDs means all active parts.
type CreateRequest struct {
	AuditDate time.Time `json:"auditDate" binding:"required"`
	Type      Type      `json:"auditType" binding:"required"`
	PartIDs   []id.ID   `json:"partIds,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// CompletionReport is the outcome of completing an audit. Adjusted
// distinguishes a reporting-only pass from one that wrote to the ledger.
type CompletionReport struct {
	Record           *Record          `json:"record"`
	MatchedItems     int              `json:"matchedItems"`
	DiscrepancyItems int              `json:"discrepancyItems"`
	UncountedItems   int              `json:"uncountedItems"`
	Adjusted         bool             `json:"adjusted"`
	Discrepancies    []DiscrepancyLog `json:"discrepancies,omitempty"`
}

// Service manages audit lifecycle and reconciliation.
type Service struct {
	repo      Repository
	parts     PartCatalog
	stock     StockLedger
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new audit service.
func NewService(repo Repository, parts PartCatalog, stock StockLedger, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		parts:     parts,
		stock:     stock,
		numerator: gen,
		txManager: txManager,
	}
}

// Create snapshots current stock into item systemQty for the selected
// parts (or all active parts) and opens the audit as PLANNED. A part
// already covered by an open audit rejects the whole request.
func (s *Service) Create(ctx context.Context, req CreateRequest, createdBy string) (*Record, error) {
	if req.Type != TypeFull && req.Type != TypePartial {
		return nil, apperror.NewValidation("unknown audit type").WithDetail("auditType", req.Type)
	}

	partIDs := req.PartIDs
	if len(partIDs) == 0 {
		active, err := s.parts.List(ctx, part.Filter{ActiveOnly: true})
		if err != nil {
			return nil, fmt.Errorf("list active parts: %w", err)
		}
		for _, p := range active {
			partIDs = append(partIDs, p.ID)
		}
	}
	if len(partIDs) == 0 {
		return nil, apperror.NewValidation("audit scope is empty")
	}

	covered, err := s.repo.ActiveAuditParts(ctx)
	if err != nil {
		return nil, fmt.Errorf("check open audits: %w", err)
	}
	for _, partID := range partIDs {
		if auditID, ok := covered[partID]; ok {
			return nil, apperror.NewConflict("part is already covered by an open audit").
				WithDetail("part_id", partID).
				WithDetail("audit_id", auditID)
		}
	}

	var record *Record
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		snapshot, err := s.stock.Snapshot(ctx, partIDs)
		if err != nil {
			return fmt.Errorf("snapshot inventory: %w", err)
		}

		now := time.Now().UTC()
		code, err := s.numerator.NextCode(ctx,
			numerator.DefaultConfig(numerator.PrefixAudit), nil, now)
		if err != nil {
			return fmt.Errorf("generate audit code: %w", err)
		}

		record = &Record{
			ID:        id.New(),
			Code:      code,
			Type:      req.Type,
			Status:    StatusPlanned,
			AuditDate: req.AuditDate,
			Notes:     req.Notes,
			CreatedBy: createdBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, partID := range partIDs {
			record.Items = append(record.Items, Item{
				ID:        id.New(),
				AuditID:   record.ID,
				PartID:    partID,
				SystemQty: snapshot[partID].CurrentQty,
			})
		}
		return s.repo.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "audit created",
		"audit_id", record.ID, "code", record.Code, "parts", len(record.Items))
	return record, nil
}

// CountLine is one counted quantity entry.
type CountLine struct {
	ItemID     id.ID          `json:"itemId" binding:"required"`
	CountedQty types.Quantity `json:"countedQty"`
}

// RecordCounts fills counted quantities and moves the audit to
// IN_PROGRESS. Counts may be submitted in several batches.
func (s *Service) RecordCounts(ctx context.Context, auditID id.ID, lines []CountLine) (*Record, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("count needs at least one line")
	}

	var record *Record
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.repo.GetByID(ctx, auditID)
		if err != nil {
			return err
		}
		if record.Status != StatusPlanned && record.Status != StatusInProgress {
			return apperror.NewConflict("audit is not open for counting").
				WithDetail("status", record.Status)
		}

		items := make(map[id.ID]*Item, len(record.Items))
		for i := range record.Items {
			items[record.Items[i].ID] = &record.Items[i]
		}
		for _, line := range lines {
			item, ok := items[line.ItemID]
			if !ok {
				return apperror.NewNotFound("audit item", line.ItemID)
			}
			if line.CountedQty.IsNegative() {
				return apperror.NewValidation("counted quantity cannot be negative").
					WithDetail("item_id", line.ItemID)
			}
			counted := line.CountedQty
			item.CountedQty = &counted
			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		if record.Status == StatusPlanned {
			record.Status = StatusInProgress
			record.UpdatedAt = time.Now().UTC()
			return s.repo.Update(ctx, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Complete reconciles counted quantities. With adjustInventory, every
// non-zero discrepancy becomes one ADJUSTMENT ledger movement setting
// stock to the counted truth, and its discrepancy log is RESOLVED
// immediately. Without it, no ledger writes happen and logs stay LOGGED.
func (s *Service) Complete(ctx context.Context, auditID id.ID, adjustInventory bool, performer string) (*CompletionReport, error) {
	var report *CompletionReport
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		record, err := s.repo.GetByID(ctx, auditID)
		if err != nil {
			return err
		}
		if record.Status != StatusPlanned && record.Status != StatusInProgress {
			return apperror.NewConflict("only open audits can be completed").
				WithDetail("status", record.Status)
		}

		now := time.Now().UTC()
		report = &CompletionReport{Record: record, Adjusted: adjustInventory}

		for i := range record.Items {
			item := &record.Items[i]
			if item.CountedQty == nil {
				report.UncountedItems++
				continue
			}
			discrepancy := item.Discrepancy()
			if discrepancy.IsZero() {
				report.MatchedItems++
				continue
			}
			report.DiscrepancyItems++

			logStatus := DiscrepancyLogged
			if adjustInventory {
				txn, err := s.stock.ApplyMovement(ctx, ledger.Movement{
					PartID:    item.PartID,
					Type:      ledger.MovementAdjustment,
					Quantity:  *item.CountedQty,
					Reference: ledger.Reference{Type: ledger.RefAudit, ID: record.ID},
					Reason:    fmt.Sprintf("Audit %s reconciliation", record.Code),
					Performer: performer,
				})
				if err != nil {
					return err
				}
				txnID := txn.ID
				item.AdjustmentTxnID = &txnID
				if err := s.repo.UpdateItem(ctx, item); err != nil {
					return err
				}
				logStatus = DiscrepancyResolved
			}

			dtype := Shortage
			if discrepancy.IsPositive() {
				dtype = Overage
			}
			log := DiscrepancyLog{
				ID:         id.New(),
				AuditID:    record.ID,
				PartID:     item.PartID,
				Type:       dtype,
				Quantity:   discrepancy.Abs(),
				SystemQty:  item.SystemQty,
				CountedQty: *item.CountedQty,
				Status:     logStatus,
				CreatedAt:  now,
			}
			if err := s.repo.AppendDiscrepancy(ctx, &log); err != nil {
				return err
			}
			report.Discrepancies = append(report.Discrepancies, log)
		}

		record.Status = StatusCompleted
		record.MatchedItems = report.MatchedItems
		record.DiscrepancyItems = report.DiscrepancyItems
		record.Adjusted = adjustInventory
		record.CompletedAt = &now
		record.UpdatedAt = now
		return s.repo.Update(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "audit completed",
		"audit_id", auditID,
		"matched", report.MatchedItems,
		"discrepancies", report.DiscrepancyItems,
		"adjusted", report.Adjusted,
	)
	return report, nil
}

// Revert undoes a completed audit's ledger adjustments. Each adjusted
// item gets the inverse movement reconstructing the original systemQty
// from the stored before value, never from a recomputation. Legal only
// from COMPLETED.
func (s *Service) Revert(ctx context.Context, auditID id.ID, performer string) (*Record, error) {
	var record *Record
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.repo.GetByID(ctx, auditID)
		if err != nil {
			return err
		}
		if record.Status != StatusCompleted {
			return apperror.NewConflict("only completed audits can be reverted").
				WithDetail("status", record.Status)
		}

		txns, err := s.stock.TransactionsFor(ctx,
			ledger.Reference{Type: ledger.RefAudit, ID: record.ID})
		if err != nil {
			return fmt.Errorf("load audit transactions: %w", err)
		}
		byID := make(map[id.ID]*ledger.Transaction, len(txns))
		for i := range txns {
			byID[txns[i].ID] = &txns[i]
		}

		reason := fmt.Sprintf("Audit %s reverted", record.Code)
		for i := range record.Items {
			item := &record.Items[i]
			if item.AdjustmentTxnID == nil {
				continue
			}
			original, ok := byID[*item.AdjustmentTxnID]
			if !ok {
				return apperror.NewInternal(
					fmt.Errorf("adjustment transaction %s missing for audit %s",
						item.AdjustmentTxnID, record.ID))
			}
			if _, err := s.stock.Reverse(ctx, original, ledger.RefAuditRevert, reason, performer); err != nil {
				return err
			}
			item.AdjustmentTxnID = nil
			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		if err := s.repo.SetDiscrepancyStatus(ctx, record.ID, DiscrepancyReverted); err != nil {
			return err
		}

		record.Status = StatusReverted
		record.Adjusted = false
		record.CompletedAt = nil
		record.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "audit reverted", "audit_id", auditID, "code", record.Code)
	return record, nil
}

// GetByID returns an audit with its items.
func (s *Service) GetByID(ctx context.Context, auditID id.ID) (*Record, error) {
	return s.repo.GetByID(ctx, auditID)
}

// List returns audits matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Record, error) {
	return s.repo.List(ctx, filter)
}

// Discrepancies returns the discrepancy logs of an audit.
func (s *Service) Discrepancies(ctx context.Context, auditID id.ID) ([]DiscrepancyLog, error) {
	return s.repo.ListDiscrepancies(ctx, auditID)
}
