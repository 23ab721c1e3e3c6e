package supplier

import (
	"context"

	"partsync/internal/core/id"
	"partsync/pkg/logger"
)

// Service provides supplier catalog operations.
type Service struct {
	repo Repository
}

// NewService creates a new supplier service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a supplier.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, sup); err != nil {
		return err
	}
	logger.Info(ctx, "supplier created", "id", sup.ID, "code", sup.Code)
	return nil
}

// Update modifies a supplier.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, sup)
}

// GetByID retrieves a supplier.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// List returns suppliers.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Supplier, error) {
	return s.repo.List(ctx, activeOnly)
}

// Lookup returns suppliers keyed by ID for batch joins.
func (s *Service) Lookup(ctx context.Context, supplierIDs []id.ID) (map[id.ID]Supplier, error) {
	suppliers, err := s.repo.GetByIDs(ctx, supplierIDs)
	if err != nil {
		return nil, err
	}
	m := make(map[id.ID]Supplier, len(suppliers))
	for _, sup := range suppliers {
		m[sup.ID] = sup
	}
	return m, nil
}
