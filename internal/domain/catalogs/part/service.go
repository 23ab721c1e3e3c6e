package part

import (
	"context"
	"fmt"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/tx"
	"partsync/pkg/logger"
)

// InventoryInitializer creates the zero-quantity inventory row for a
// new part. Implemented by the ledger service.
type InventoryInitializer interface {
	InitInventory(ctx context.Context, partID id.ID) error
}

// Service provides part catalog operations.
type Service struct {
	repo      Repository
	inventory InventoryInitializer
	txManager tx.Manager
}

// NewService creates a new part service.
func NewService(repo Repository, inventory InventoryInitializer, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		inventory: inventory,
		txManager: txManager,
	}
}

// Create inserts a part and its inventory row in one transaction.
// Duplicate codes are rejected.
func (s *Service) Create(ctx context.Context, p *Part) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if existing, err := s.repo.GetByCode(ctx, p.Code); err == nil && existing != nil {
		return apperror.NewDuplicate("part", "code", p.Code)
	} else if err != nil && !apperror.IsNotFound(err) {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create part: %w", err)
		}
		return s.inventory.InitInventory(ctx, p.ID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "part created", "id", p.ID, "code", p.Code)
	return nil
}

// Update modifies mutable commercial attributes. Code is identity and
// cannot change.
func (s *Service) Update(ctx context.Context, p *Part) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing.Code != p.Code {
		return apperror.NewValidation("part code is immutable").WithDetail("field", "code")
	}

	p.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, p)
}

// GetByID retrieves a part.
func (s *Service) GetByID(ctx context.Context, partID id.ID) (*Part, error) {
	return s.repo.GetByID(ctx, partID)
}

// List returns parts matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Part, error) {
	return s.repo.List(ctx, filter)
}

// Lookup returns parts keyed by ID for batch joins.
func (s *Service) Lookup(ctx context.Context, partIDs []id.ID) (map[id.ID]Part, error) {
	parts, err := s.repo.GetByIDs(ctx, partIDs)
	if err != nil {
		return nil, err
	}
	m := make(map[id.ID]Part, len(parts))
	for _, p := range parts {
		m[p.ID] = p
	}
	return m, nil
}

// Deactivate marks a part inactive; history stays intact.
func (s *Service) Deactivate(ctx context.Context, partID id.ID) error {
	if _, err := s.repo.GetByID(ctx, partID); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, partID)
}
