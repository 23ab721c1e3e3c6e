package salesorder

import (
	"context"
	"fmt"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
	"partsync/internal/core/tx"
	"partsync/pkg/logger"
)

// Service provides sales order operations.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new sales order service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{repo: repo, numerator: gen, txManager: txManager}
}

// Create inserts an order with its items.
func (s *Service) Create(ctx context.Context, o *SalesOrder) error {
	if o.Status == "" {
		o.Status = StatusReceived
	}
	if err := o.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.ID) {
		o.ID = id.New()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}

	if o.Code == "" {
		code, err := s.numerator.NextCode(ctx, numerator.DefaultConfig(numerator.PrefixSalesOrder), nil, now)
		if err != nil {
			return fmt.Errorf("generate order code: %w", err)
		}
		o.Code = code
	}

	for i := range o.Items {
		if id.IsNil(o.Items[i].ID) {
			o.Items[i].ID = id.New()
		}
		o.Items[i].SalesOrderID = o.ID
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create sales order: %w", err)
		}
		return s.repo.SaveItems(ctx, o.ID, o.Items)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sales order created", "id", o.ID, "code", o.Code)
	return nil
}

// GetByID retrieves an order with items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*SalesOrder, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	o.Items = items
	return o, nil
}

// List returns orders filtered by status.
func (s *Service) List(ctx context.Context, statuses []Status) ([]SalesOrder, error) {
	return s.repo.List(ctx, statuses)
}

// SetStatus transitions an order. Completed and cancelled are terminal.
func (s *Service) SetStatus(ctx context.Context, orderID id.ID, status Status) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status == StatusCompleted || o.Status == StatusCancelled {
		return apperror.NewBusinessRule("ORDER_CLOSED", "completed or cancelled orders cannot change status")
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, o)
}

// OpenItems returns the demand-contributing items.
func (s *Service) OpenItems(ctx context.Context) ([]OpenItem, error) {
	return s.repo.ListOpenItems(ctx, OpenStatuses)
}

// ProjectName resolves the project of a sales order. Empty when the
// order carries no project.
func (s *Service) ProjectName(ctx context.Context, orderID id.ID) (string, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	return o.ProjectName, nil
}
