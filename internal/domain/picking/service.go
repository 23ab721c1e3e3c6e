package picking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
	"partsync/internal/core/tx"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/catalogs/product"
	"partsync/internal/domain/ledger"
	"partsync/internal/domain/salesorder"
	"partsync/pkg/logger"
)

// StockLedger is the slice of the inventory ledger picking depends on.
type StockLedger interface {
	ApplyMovement(ctx context.Context, m ledger.Movement) (*ledger.Transaction, error)
	Reverse(ctx context.Context, original *ledger.Transaction, refType ledger.ReferenceType, reason, performer string) (*ledger.Transaction, error)
	TransactionsFor(ctx context.Context, ref ledger.Reference) ([]ledger.Transaction, error)
}

// OrderSource loads the sales order to pick for.
type OrderSource interface {
	GetByID(ctx context.Context, orderID id.ID) (*salesorder.SalesOrder, error)
}

// BomSource supplies bills of materials keyed by product.
type BomSource interface {
	BomsFor(ctx context.Context, productIDs []id.ID) (map[id.ID][]product.BomItem, error)
}

// PartCatalog resolves storage locations for pick items.
type PartCatalog interface {
	Lookup(ctx context.Context, partIDs []id.ID) (map[id.ID]part.Part, error)
}

// Service generates pick lists and applies their stock movements.
type Service struct {
	repo      Repository
	orders    OrderSource
	boms      BomSource
	parts     PartCatalog
	stock     StockLedger
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new picking service.
func NewService(repo Repository, orders OrderSource, boms BomSource, parts PartCatalog, stock StockLedger, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		boms:      boms,
		parts:     parts,
		stock:     stock,
		numerator: gen,
		txManager: txManager,
	}
}

// CreateFromSalesOrder builds the pick list for one sales order:
// required quantities aggregated per part across all BOM lines of all
// order items, each attached to the part's storage location and
// sequenced into a walking route. One task per sales order.
func (s *Service) CreateFromSalesOrder(ctx context.Context, salesOrderID id.ID, createdBy string) (*Task, error) {
	if existing, err := s.repo.GetBySalesOrder(ctx, salesOrderID); err == nil {
		return nil, apperror.NewConflict("picking task already exists for this sales order").
			WithDetail("task_id", existing.ID)
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, salesOrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOpen() {
		return nil, apperror.NewConflict("sales order is not open for picking").
			WithDetail("status", order.Status)
	}

	productIDs := make([]id.ID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	boms, err := s.boms.BomsFor(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load boms: %w", err)
	}

	required := make(map[id.ID]types.Quantity)
	for _, item := range order.Items {
		for _, line := range boms[item.ProductID] {
			required[line.PartID] += line.RequiredFor(item.OrderQty)
		}
	}
	if len(required) == 0 {
		return nil, apperror.NewValidation("sales order products have no bill of materials")
	}

	partIDs := make([]id.ID, 0, len(required))
	for partID := range required {
		partIDs = append(partIDs, partID)
	}
	sort.Slice(partIDs, func(i, j int) bool { return partIDs[i].String() < partIDs[j].String() })

	parts, err := s.parts.Lookup(ctx, partIDs)
	if err != nil {
		return nil, fmt.Errorf("lookup parts: %w", err)
	}

	var task *Task
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		code, err := s.numerator.NextCode(ctx,
			numerator.DefaultConfig(numerator.PrefixPicking), nil, now)
		if err != nil {
			return fmt.Errorf("generate task code: %w", err)
		}

		task = &Task{
			ID:           id.New(),
			Code:         code,
			SalesOrderID: salesOrderID,
			Status:       TaskPending,
			CreatedBy:    createdBy,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		for _, partID := range partIDs {
			task.Items = append(task.Items, Item{
				ID:              id.New(),
				TaskID:          task.ID,
				PartID:          partID,
				RequiredQty:     required[partID],
				StorageLocation: parts[partID].StorageLocation,
				Status:          ItemPending,
			})
		}
		sortByRoute(task.Items)

		return s.repo.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "picking task created",
		"task_id", task.ID, "code", task.Code,
		"sales_order_id", salesOrderID, "items", len(task.Items))
	return task, nil
}

// PickItem completes one pick line: the picked quantity leaves stock as
// an OUTBOUND movement. A zero quantity picks the full required amount.
func (s *Service) PickItem(ctx context.Context, taskID, itemID id.ID, qty types.Quantity, performer string) (*Task, error) {
	var task *Task
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.repo.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status == TaskCompleted || task.Status == TaskCancelled {
			return apperror.NewConflict("task is closed").WithDetail("status", task.Status)
		}

		item := findItem(task, itemID)
		if item == nil {
			return apperror.NewNotFound("picking item", itemID)
		}
		if item.Status == ItemPicked {
			return apperror.NewConflict("item already picked").WithDetail("item_id", itemID)
		}

		if qty.IsZero() {
			qty = item.RequiredQty
		}
		if qty.IsNegative() {
			return apperror.NewValidation("picked quantity cannot be negative")
		}

		txn, err := s.stock.ApplyMovement(ctx, ledger.Movement{
			PartID:    item.PartID,
			Type:      ledger.MovementOutbound,
			Quantity:  qty,
			Reference: ledger.Reference{Type: ledger.RefPicking, ID: task.ID},
			Reason:    fmt.Sprintf("Pick %s", task.Code),
			Performer: performer,
		})
		if err != nil {
			return err
		}

		txnID := txn.ID
		item.PickedQty = qty
		item.Status = ItemPicked
		item.PickTxnID = &txnID
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return err
		}

		return s.refreshTaskStatus(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SkipItem marks a line as skipped without moving stock.
func (s *Service) SkipItem(ctx context.Context, taskID, itemID id.ID) (*Task, error) {
	var task *Task
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.repo.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		item := findItem(task, itemID)
		if item == nil {
			return apperror.NewNotFound("picking item", itemID)
		}
		if item.Status == ItemPicked {
			return apperror.NewConflict("picked items cannot be skipped")
		}

		item.Status = ItemSkipped
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return err
		}
		return s.refreshTaskStatus(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Revert undoes a completed task. Every picked item gets the inverse
// INBOUND movement and resets to PENDING; skipped items reset without a
// ledger call since they never moved stock.
func (s *Service) Revert(ctx context.Context, taskID id.ID, performer string) (*Task, error) {
	var task *Task
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.repo.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status != TaskCompleted {
			return apperror.NewConflict("only completed tasks can be reverted").
				WithDetail("status", task.Status)
		}

		txns, err := s.stock.TransactionsFor(ctx,
			ledger.Reference{Type: ledger.RefPicking, ID: task.ID})
		if err != nil {
			return fmt.Errorf("load pick transactions: %w", err)
		}
		byID := make(map[id.ID]*ledger.Transaction, len(txns))
		for i := range txns {
			byID[txns[i].ID] = &txns[i]
		}

		reason := fmt.Sprintf("Pick %s reverted", task.Code)
		for i := range task.Items {
			item := &task.Items[i]
			switch item.Status {
			case ItemPicked:
				original, ok := byID[*item.PickTxnID]
				if !ok {
					return apperror.NewInternal(
						fmt.Errorf("pick transaction %s missing for task %s", item.PickTxnID, task.ID))
				}
				if _, err := s.stock.Reverse(ctx, original, ledger.RefPickingRevert, reason, performer); err != nil {
					return err
				}
			case ItemSkipped:
				// Never moved stock; just reset below.
			default:
				continue
			}

			item.Status = ItemPending
			item.PickedQty = 0
			item.PickTxnID = nil
			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		task.Status = TaskPending
		task.CompletedAt = nil
		task.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "picking task reverted", "task_id", taskID, "code", task.Code)
	return task, nil
}

// refreshTaskStatus derives the task status from its items.
func (s *Service) refreshTaskStatus(ctx context.Context, task *Task) error {
	done := true
	touched := false
	for _, item := range task.Items {
		switch item.Status {
		case ItemPicked, ItemSkipped:
			touched = true
		default:
			done = false
		}
	}

	next := task.Status
	now := time.Now().UTC()
	switch {
	case done:
		next = TaskCompleted
		task.CompletedAt = &now
	case touched:
		next = TaskInProgress
	}
	if next == task.Status {
		return nil
	}
	task.Status = next
	task.UpdatedAt = now
	return s.repo.Update(ctx, task)
}

func findItem(task *Task, itemID id.ID) *Item {
	for i := range task.Items {
		if task.Items[i].ID == itemID {
			return &task.Items[i]
		}
	}
	return nil
}

// GetByID returns a task with its items.
func (s *Service) GetByID(ctx context.Context, taskID id.ID) (*Task, error) {
	return s.repo.GetByID(ctx, taskID)
}

// List returns tasks matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Task, error) {
	return s.repo.List(ctx, filter)
}
