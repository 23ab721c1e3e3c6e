package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/infrastructure/storage/postgres"
)

const partTable = "cat_parts"

// PartRepo implements part.Repository.
type PartRepo struct {
	*baseRepo[part.Part]
}

var _ part.Repository = (*PartRepo)(nil)

// NewPartRepo creates a new part repository.
func NewPartRepo(txManager *postgres.TxManager) *PartRepo {
	return &PartRepo{baseRepo: newBaseRepo[part.Part](txManager, partTable)}
}

func (r *PartRepo) Create(ctx context.Context, p *part.Part) error {
	if err := r.insert(ctx, p); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("part", "code", p.Code)
		}
		return err
	}
	return nil
}

func (r *PartRepo) Update(ctx context.Context, p *part.Part) error {
	return r.update(ctx, p)
}

func (r *PartRepo) GetByID(ctx context.Context, partID id.ID) (*part.Part, error) {
	return r.getByID(ctx, partID)
}

func (r *PartRepo) GetByCode(ctx context.Context, code string) (*part.Part, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"code": code}), code)
}

func (r *PartRepo) GetByIDs(ctx context.Context, partIDs []id.ID) ([]part.Part, error) {
	if len(partIDs) == 0 {
		return nil, nil
	}
	return r.findMany(ctx, r.baseSelect().Where(squirrel.Eq{"id": partIDs}))
}

func (r *PartRepo) List(ctx context.Context, filter part.Filter) ([]part.Part, error) {
	q := r.baseSelect().OrderBy("code ASC")
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return r.findMany(ctx, q)
}

func (r *PartRepo) Deactivate(ctx context.Context, partID id.ID) error {
	sql, args, err := postgres.Builder().
		Update(partTable).
		Set("active", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": partID}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("part", partID)
	}
	return nil
}
