package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/catalogs/product"
	"partsync/internal/infrastructure/storage/postgres"
)

const (
	productTable = "cat_products"
	bomTable     = "cat_bom_items"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*baseRepo[product.Product]
	bomCols []string
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		baseRepo: newBaseRepo[product.Product](txManager, productTable),
		bomCols:  postgres.ExtractDBColumns[product.BomItem](),
	}
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	if err := r.insert(ctx, p); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "code", p.Code)
		}
		return err
	}
	return nil
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return r.update(ctx, p)
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, err := r.getByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	p.BomItems, err = r.GetBom(ctx, productID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, activeOnly bool) ([]product.Product, error) {
	q := r.baseSelect().OrderBy("code ASC")
	if activeOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	return r.findMany(ctx, q)
}

// SaveBom replaces the product's BOM lines. The delete and re-insert
// run against the ambient transaction.
func (r *ProductRepo) SaveBom(ctx context.Context, productID id.ID, items []product.BomItem) error {
	querier := r.querier(ctx)

	sql, args, err := postgres.Builder().
		Delete(bomTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build bom delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete bom lines: %w", err)
	}

	for _, item := range items {
		sql, args, err := postgres.Builder().
			Insert(bomTable).
			SetMap(postgres.StructToMap(&item)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build bom insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			if postgres.IsUniqueViolation(err) {
				return apperror.NewDuplicate("bom item", "part", item.PartID.String())
			}
			return fmt.Errorf("insert bom line: %w", err)
		}
	}
	return nil
}

func (r *ProductRepo) GetBom(ctx context.Context, productID id.ID) ([]product.BomItem, error) {
	sql, args, err := postgres.Builder().
		Select(r.bomCols...).
		From(bomTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bom query: %w", err)
	}

	var items []product.BomItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select bom lines: %w", err)
	}
	return items, nil
}

func (r *ProductRepo) GetBoms(ctx context.Context, productIDs []id.ID) (map[id.ID][]product.BomItem, error) {
	if len(productIDs) == 0 {
		return map[id.ID][]product.BomItem{}, nil
	}

	sql, args, err := postgres.Builder().
		Select(r.bomCols...).
		From(bomTable).
		Where(squirrel.Eq{"product_id": productIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bom query: %w", err)
	}

	var items []product.BomItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select bom lines: %w", err)
	}

	boms := make(map[id.ID][]product.BomItem, len(productIDs))
	for _, item := range items {
		boms[item.ProductID] = append(boms[item.ProductID], item)
	}
	return boms, nil
}
