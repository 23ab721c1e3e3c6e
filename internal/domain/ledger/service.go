package ledger

import (
	"context"
	"fmt"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
	"partsync/internal/core/tx"
	"partsync/internal/core/types"
	"partsync/pkg/logger"
)

// Service applies stock movements. Every call is one atomic unit:
// read the inventory row, compute afterQty, write the row, append the
// transaction. All of it runs under serializable isolation so a
// concurrent writer on the same part cannot interleave.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
		txManager: txManager,
	}
}

func codePrefix(t MovementType) string {
	switch t {
	case MovementInbound:
		return numerator.PrefixInbound
	case MovementOutbound:
		return numerator.PrefixOutbound
	case MovementAdjustment:
		return numerator.PrefixAdjustment
	default:
		return numerator.PrefixTransfer
	}
}

// ApplyMovement mutates stock for one part and appends the ledger entry.
// For OUTBOUND it fails with InsufficientStock when the movement would
// drive currentQty below zero, leaving state unchanged.
func (s *Service) ApplyMovement(ctx context.Context, m Movement) (*Transaction, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var txn *Transaction
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetInventoryForUpdate(ctx, m.PartID)
		if err != nil {
			return err
		}

		before := inv.CurrentQty
		var after, recorded types.Quantity
		now := time.Now().UTC()

		switch m.Type {
		case MovementInbound, MovementTransfer:
			after = before + m.Quantity
			recorded = m.Quantity
			inv.LastInboundDate = &now
		case MovementOutbound:
			if before-m.Quantity < 0 {
				return apperror.NewInsufficientStock(
					m.PartID.String(), m.Quantity.Int64(), before.Int64())
			}
			after = before - m.Quantity
			recorded = m.Quantity
			inv.LastOutboundDate = &now
		case MovementAdjustment:
			// Caller supplies the new authoritative quantity.
			after = m.Quantity
			recorded = (after - before).Abs()
			inv.LastAuditDate = &now
		}

		code, err := s.numerator.NextCode(ctx, numerator.DefaultConfig(codePrefix(m.Type)),
			&numerator.Options{Strategy: numerator.StrategyCached}, now)
		if err != nil {
			return fmt.Errorf("generate transaction code: %w", err)
		}

		inv.CurrentQty = after
		inv.UpdatedAt = now
		if err := s.repo.UpdateInventory(ctx, inv); err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}

		txn = &Transaction{
			ID:        id.New(),
			Code:      code,
			PartID:    m.PartID,
			Type:      m.Type,
			Quantity:  recorded,
			BeforeQty: before,
			AfterQty:  after,
			Reference: m.Reference,
			Reason:    m.Reason,
			Performer: m.Performer,
			CreatedAt: now,
		}
		if err := s.repo.AppendTransaction(ctx, txn); err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock movement applied",
		"part_id", m.PartID,
		"type", m.Type,
		"code", txn.Code,
		"before", txn.BeforeQty,
		"after", txn.AfterQty,
	)

	return txn, nil
}

// Reverse applies the opposite-direction movement with the original
// quantity. The ledger does not special-case reversal beyond the
// *_REVERT reference.
func (s *Service) Reverse(ctx context.Context, original *Transaction, refType ReferenceType, reason, performer string) (*Transaction, error) {
	var inverse MovementType
	var qty types.Quantity

	switch original.Type {
	case MovementInbound:
		inverse = MovementOutbound
		qty = original.Quantity
	case MovementOutbound:
		inverse = MovementInbound
		qty = original.Quantity
	case MovementAdjustment:
		// Restore the exact stored before value, never recompute it.
		inverse = MovementAdjustment
		qty = original.BeforeQty
	default:
		return nil, apperror.NewValidation("transfer movements are not reversible")
	}

	return s.ApplyMovement(ctx, Movement{
		PartID:    original.PartID,
		Type:      inverse,
		Quantity:  qty,
		Reference: Reference{Type: refType, ID: original.Reference.ID},
		Reason:    reason,
		Performer: performer,
	})
}

// Reserve increases the reserved counter for a part. Reserved stock is
// still on hand; only availableQty changes. No ledger entry is written
// because currentQty does not move.
func (s *Service) Reserve(ctx context.Context, partID id.ID, qty types.Quantity) error {
	return s.adjustCounters(ctx, partID, qty, 0)
}

// Release decreases the reserved counter for a part.
func (s *Service) Release(ctx context.Context, partID id.ID, qty types.Quantity) error {
	return s.adjustCounters(ctx, partID, -qty, 0)
}

// AddIncoming increases the incoming counter when a purchase order is issued.
func (s *Service) AddIncoming(ctx context.Context, partID id.ID, qty types.Quantity) error {
	return s.adjustCounters(ctx, partID, 0, qty)
}

// ReduceIncoming decreases the incoming counter when goods are received.
func (s *Service) ReduceIncoming(ctx context.Context, partID id.ID, qty types.Quantity) error {
	return s.adjustCounters(ctx, partID, 0, -qty)
}

func (s *Service) adjustCounters(ctx context.Context, partID id.ID, reservedDelta, incomingDelta types.Quantity) error {
	if id.IsNil(partID) {
		return apperror.NewValidation("part is required")
	}

	return s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetInventoryForUpdate(ctx, partID)
		if err != nil {
			return err
		}

		reserved := inv.ReservedQty + reservedDelta
		incoming := inv.IncomingQty + incomingDelta
		// Counters saturate at zero: an over-release is clamped, not an error.
		if reserved < 0 {
			reserved = 0
		}
		if incoming < 0 {
			incoming = 0
		}

		inv.ReservedQty = reserved
		inv.IncomingQty = incoming
		inv.UpdatedAt = time.Now().UTC()
		return s.repo.UpdateInventory(ctx, inv)
	})
}

// GetStock returns the inventory row for a part.
func (s *Service) GetStock(ctx context.Context, partID id.ID) (*Inventory, error) {
	return s.repo.GetInventory(ctx, partID)
}

// Snapshot returns inventory rows keyed by part.
func (s *Service) Snapshot(ctx context.Context, partIDs []id.ID) (map[id.ID]Inventory, error) {
	rows, err := s.repo.ListInventories(ctx, partIDs)
	if err != nil {
		return nil, fmt.Errorf("list inventories: %w", err)
	}

	snapshot := make(map[id.ID]Inventory, len(rows))
	for _, row := range rows {
		snapshot[row.PartID] = row
	}
	return snapshot, nil
}

// History returns the transaction log for a part, newest first.
func (s *Service) History(ctx context.Context, partID id.ID, filter TransactionFilter) ([]Transaction, error) {
	return s.repo.ListTransactionsByPart(ctx, partID, filter)
}

// TransactionsFor returns the ledger entries created by a document.
func (s *Service) TransactionsFor(ctx context.Context, ref Reference) ([]Transaction, error) {
	return s.repo.ListTransactionsByReference(ctx, ref)
}

// InitInventory creates the zero-quantity row for a newly created part.
func (s *Service) InitInventory(ctx context.Context, partID id.ID) error {
	return s.repo.CreateInventory(ctx, &Inventory{
		PartID:    partID,
		UpdatedAt: time.Now().UTC(),
	})
}
