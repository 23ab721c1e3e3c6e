package purchase

import (
	"context"
	"fmt"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
	"partsync/internal/core/tx"
	"partsync/internal/core/types"
	"partsync/internal/domain/ledger"
	"partsync/pkg/logger"
)

// StockLedger is the slice of the inventory ledger purchase depends on.
type StockLedger interface {
	ApplyMovement(ctx context.Context, m ledger.Movement) (*ledger.Transaction, error)
	AddIncoming(ctx context.Context, partID id.ID, qty types.Quantity) error
	ReduceIncoming(ctx context.Context, partID id.ID, qty types.Quantity) error
}

// ReceiveLine is one received quantity for a goods receipt.
type ReceiveLine struct {
	ItemID   id.ID          `json:"itemId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`
}

// Service manages purchase order lifecycle and goods receipt.
type Service struct {
	repo      Repository
	stock     StockLedger
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new purchase service.
func NewService(repo Repository, stock StockLedger, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		stock:     stock,
		numerator: gen,
		txManager: txManager,
	}
}

// Create persists a purchase order. Draft orders carry no incoming
// supply; issued orders register their quantities as incoming.
func (s *Service) Create(ctx context.Context, order *Order) (*Order, error) {
	if err := order.Validate(ctx); err != nil {
		return nil, err
	}
	if order.Status == "" {
		order.Status = StatusDraft
	}
	if order.Status != StatusDraft && order.Status != StatusOrdered {
		return nil, apperror.NewValidation("new orders start as DRAFT or ORDERED").
			WithDetail("status", order.Status)
	}

	now := time.Now().UTC()
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, err := s.numerator.NextCode(ctx,
			numerator.DefaultConfig(numerator.PrefixPurchaseOrder), nil, now)
		if err != nil {
			return fmt.Errorf("generate order code: %w", err)
		}

		order.ID = id.New()
		order.Code = code
		order.CreatedAt = now
		order.UpdatedAt = now
		if order.OrderDate.IsZero() {
			order.OrderDate = now
		}

		total := types.Money{}
		for i := range order.Items {
			item := &order.Items[i]
			item.ID = id.New()
			item.OrderID = order.ID
			item.Amount = item.UnitPrice.Mul(item.OrderQty.Decimal())
			if order.Status == StatusOrdered {
				item.Status = ItemOrdered
			} else {
				item.Status = ItemPending
			}
			total = total.Add(item.Amount)
		}
		order.TotalAmount = total

		if err := s.repo.Create(ctx, order); err != nil {
			return err
		}

		if order.Status == StatusOrdered {
			for _, item := range order.Items {
				if err := s.stock.AddIncoming(ctx, item.PartID, item.OrderQty); err != nil {
					return fmt.Errorf("register incoming for part %s: %w", item.PartID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created",
		"order_id", order.ID, "code", order.Code, "status", order.Status,
		"items", len(order.Items))
	return order, nil
}

// Issue moves a draft order to ORDERED and registers its quantities as
// incoming supply. Idempotent for already-ordered orders.
func (s *Service) Issue(ctx context.Context, orderID id.ID) (*Order, error) {
	var order *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case StatusOrdered, StatusPartial, StatusCompleted:
			return nil
		case StatusCancelled:
			return apperror.NewConflict("cancelled orders cannot be issued")
		}

		if err := s.repo.UpdateStatus(ctx, orderID, StatusOrdered); err != nil {
			return err
		}
		order.Status = StatusOrdered
		for i := range order.Items {
			item := &order.Items[i]
			item.Status = ItemOrdered
			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return err
			}
			if err := s.stock.AddIncoming(ctx, item.PartID, item.OrderQty); err != nil {
				return fmt.Errorf("register incoming for part %s: %w", item.PartID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel aborts an order that has received nothing. Open quantities are
// removed from the incoming counters.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusCancelled {
			return nil
		}
		for _, item := range order.Items {
			if item.ReceivedQty.IsPositive() {
				return apperror.NewConflict("orders with received items cannot be cancelled").
					WithDetail("item_id", item.ID)
			}
		}

		wasOpen := order.Status == StatusOrdered || order.Status == StatusApproved
		if err := s.repo.UpdateStatus(ctx, orderID, StatusCancelled); err != nil {
			return err
		}
		if wasOpen {
			for _, item := range order.Items {
				if err := s.stock.ReduceIncoming(ctx, item.PartID, item.OrderQty); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Receive records a goods receipt against an order. Each line applies an
// INBOUND ledger movement and reduces the incoming counter. A line that
// would push receivedQty past orderQty rejects the whole receipt.
func (s *Service) Receive(ctx context.Context, orderID id.ID, lines []ReceiveLine, performer string) (*Order, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("receipt needs at least one line")
	}

	var order *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case StatusOrdered, StatusPartial, StatusApproved:
		default:
			return apperror.NewConflict("order is not receivable").
				WithDetail("status", order.Status)
		}

		items := make(map[id.ID]*OrderItem, len(order.Items))
		for i := range order.Items {
			items[order.Items[i].ID] = &order.Items[i]
		}

		for _, line := range lines {
			item, ok := items[line.ItemID]
			if !ok {
				return apperror.NewNotFound("order item", line.ItemID)
			}
			if !line.Quantity.IsPositive() {
				return apperror.NewValidation("receive quantity must be positive").
					WithDetail("item_id", line.ItemID)
			}
			if line.Quantity > item.Remaining() {
				return apperror.NewValidation("receive quantity exceeds remaining order quantity").
					WithDetail("item_id", line.ItemID).
					WithDetail("remaining", item.Remaining()).
					WithDetail("requested", line.Quantity)
			}

			_, err := s.stock.ApplyMovement(ctx, ledger.Movement{
				PartID:    item.PartID,
				Type:      ledger.MovementInbound,
				Quantity:  line.Quantity,
				Reference: ledger.Reference{Type: ledger.RefOrder, ID: order.ID},
				Reason:    fmt.Sprintf("Goods receipt %s", order.Code),
				Performer: performer,
			})
			if err != nil {
				return err
			}
			if err := s.stock.ReduceIncoming(ctx, item.PartID, line.Quantity); err != nil {
				return err
			}

			item.ReceivedQty += line.Quantity
			item.Status = item.DeriveItemStatus()
			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		next := order.DeriveStatus()
		if next != order.Status {
			if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
				return err
			}
			order.Status = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt posted",
		"order_id", order.ID, "code", order.Code,
		"lines", len(lines), "status", order.Status)
	return order, nil
}

// GetByID returns an order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

// IncomingSupply aggregates unreceived open-order quantities per part,
// tagged with the earliest expected date.
func (s *Service) IncomingSupply(ctx context.Context) (map[id.ID]types.Quantity, error) {
	rows, err := s.repo.ListIncoming(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incoming lines: %w", err)
	}
	supply := make(map[id.ID]types.Quantity, len(rows))
	for _, row := range rows {
		supply[row.PartID] += row.Remaining
	}
	return supply, nil
}
