// Package order_repo provides PostgreSQL implementations of the sales
// and purchase order repositories.
package order_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/salesorder"
	"partsync/internal/infrastructure/storage/postgres"
)

const (
	salesOrderTable = "doc_sales_orders"
	salesItemTable  = "doc_sales_order_items"
)

// SalesOrderRepo implements salesorder.Repository.
type SalesOrderRepo struct {
	txManager *postgres.TxManager
	orderCols []string
	itemCols  []string
}

var _ salesorder.Repository = (*SalesOrderRepo)(nil)

// NewSalesOrderRepo creates a new sales order repository.
func NewSalesOrderRepo(txManager *postgres.TxManager) *SalesOrderRepo {
	return &SalesOrderRepo{
		txManager: txManager,
		orderCols: postgres.ExtractDBColumns[salesorder.SalesOrder](),
		itemCols:  postgres.ExtractDBColumns[salesorder.Item](),
	}
}

func (r *SalesOrderRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *SalesOrderRepo) Create(ctx context.Context, o *salesorder.SalesOrder) error {
	sql, args, err := postgres.Builder().
		Insert(salesOrderTable).
		SetMap(postgres.StructToMap(o)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build order insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("sales order", "code", o.Code)
		}
		return fmt.Errorf("insert sales order: %w", err)
	}
	return nil
}

func (r *SalesOrderRepo) Update(ctx context.Context, o *salesorder.SalesOrder) error {
	data := postgres.StructToMap(o)
	delete(data, "id")
	delete(data, "created_at")

	sql, args, err := postgres.Builder().
		Update(salesOrderTable).
		SetMap(data).
		Where(squirrel.Eq{"id": o.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build order update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sales order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sales order", o.ID)
	}
	return nil
}

func (r *SalesOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*salesorder.SalesOrder, error) {
	sql, args, err := postgres.Builder().
		Select(r.orderCols...).
		From(salesOrderTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build order query: %w", err)
	}

	var order salesorder.SalesOrder
	if err := pgxscan.Get(ctx, r.querier(ctx), &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sales order", orderID)
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}

	order.Items, err = r.GetItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *SalesOrderRepo) List(ctx context.Context, statuses []salesorder.Status) ([]salesorder.SalesOrder, error) {
	q := postgres.Builder().
		Select(r.orderCols...).
		From(salesOrderTable).
		OrderBy("order_date DESC")
	if len(statuses) > 0 {
		q = q.Where(squirrel.Eq{"status": statuses})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build order list: %w", err)
	}

	var orders []salesorder.SalesOrder
	if err := pgxscan.Select(ctx, r.querier(ctx), &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	return orders, nil
}

// ListOpenItems joins items to their order header in one query; the
// demand aggregator walks the result directly.
func (r *SalesOrderRepo) ListOpenItems(ctx context.Context, statuses []salesorder.Status) ([]salesorder.OpenItem, error) {
	cols := make([]string, 0, len(r.itemCols)+4)
	for _, col := range r.itemCols {
		cols = append(cols, "i."+col)
	}
	cols = append(cols,
		"o.code AS order_code",
		"o.project_name",
		"o.status",
		"o.due_date",
	)

	sql, args, err := postgres.Builder().
		Select(cols...).
		From(salesItemTable+" i").
		Join(salesOrderTable+" o ON o.id = i.sales_order_id").
		Where(squirrel.Eq{"o.status": statuses}).
		OrderBy("o.due_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open items query: %w", err)
	}

	var items []salesorder.OpenItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list open items: %w", err)
	}
	return items, nil
}

// SaveItems replaces the order's item lines.
func (r *SalesOrderRepo) SaveItems(ctx context.Context, orderID id.ID, items []salesorder.Item) error {
	querier := r.querier(ctx)

	sql, args, err := postgres.Builder().
		Delete(salesItemTable).
		Where(squirrel.Eq{"sales_order_id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build items delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	for _, item := range items {
		sql, args, err := postgres.Builder().
			Insert(salesItemTable).
			SetMap(postgres.StructToMap(&item)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *SalesOrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]salesorder.Item, error) {
	sql, args, err := postgres.Builder().
		Select(r.itemCols...).
		From(salesItemTable).
		Where(squirrel.Eq{"sales_order_id": orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []salesorder.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return items, nil
}
