package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/catalogs/supplier"
	"partsync/internal/infrastructure/storage/postgres"
)

const supplierTable = "cat_suppliers"

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*baseRepo[supplier.Supplier]
}

var _ supplier.Repository = (*SupplierRepo)(nil)

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{baseRepo: newBaseRepo[supplier.Supplier](txManager, supplierTable)}
}

func (r *SupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	if err := r.insert(ctx, s); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("supplier", "code", s.Code)
		}
		return err
	}
	return nil
}

func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	return r.update(ctx, s)
}

func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	return r.getByID(ctx, supplierID)
}

func (r *SupplierRepo) GetByIDs(ctx context.Context, supplierIDs []id.ID) ([]supplier.Supplier, error) {
	if len(supplierIDs) == 0 {
		return nil, nil
	}
	return r.findMany(ctx, r.baseSelect().Where(squirrel.Eq{"id": supplierIDs}))
}

func (r *SupplierRepo) List(ctx context.Context, activeOnly bool) ([]supplier.Supplier, error) {
	q := r.baseSelect().OrderBy("code ASC")
	if activeOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	return r.findMany(ctx, q)
}
