package product

import (
	"context"
	"fmt"

	"partsync/internal/core/id"
	"partsync/internal/core/tx"
	"partsync/pkg/logger"
)

// Service provides product catalog operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create inserts a product and its BOM lines in one transaction.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return s.repo.SaveBom(ctx, p.ID, p.BomItems)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "code", p.Code, "bom_lines", len(p.BomItems))
	return nil
}

// Update modifies a product and replaces its BOM.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return s.repo.SaveBom(ctx, p.ID, p.BomItems)
	})
}

// GetByID retrieves a product with its BOM.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetBom(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get bom: %w", err)
	}
	p.BomItems = items

	return p, nil
}

// List returns products without BOM lines.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Product, error) {
	return s.repo.List(ctx, activeOnly)
}

// BomsFor returns BOM lines keyed by product for demand explosion.
func (s *Service) BomsFor(ctx context.Context, productIDs []id.ID) (map[id.ID][]BomItem, error) {
	return s.repo.GetBoms(ctx, productIDs)
}
