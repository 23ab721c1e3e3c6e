package order_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/purchase"
	"partsync/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrderTable = "doc_purchase_orders"
	purchaseItemTable  = "doc_purchase_order_items"
)

// PurchaseOrderRepo implements purchase.Repository.
type PurchaseOrderRepo struct {
	txManager *postgres.TxManager
	orderCols []string
	itemCols  []string
}

var _ purchase.Repository = (*PurchaseOrderRepo)(nil)

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		txManager: txManager,
		orderCols: postgres.ExtractDBColumns[purchase.Order](),
		itemCols:  postgres.ExtractDBColumns[purchase.OrderItem](),
	}
}

func (r *PurchaseOrderRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *PurchaseOrderRepo) Create(ctx context.Context, order *purchase.Order) error {
	querier := r.querier(ctx)

	sql, args, err := postgres.Builder().
		Insert(purchaseOrderTable).
		SetMap(postgres.StructToMap(order)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build order insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("purchase order", "code", order.Code)
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}

	for _, item := range order.Items {
		sql, args, err := postgres.Builder().
			Insert(purchaseItemTable).
			SetMap(postgres.StructToMap(&item)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert purchase order item: %w", err)
		}
	}
	return nil
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*purchase.Order, error) {
	return r.findOne(ctx, squirrel.Eq{"id": orderID}, orderID.String())
}

func (r *PurchaseOrderRepo) GetByCode(ctx context.Context, code string) (*purchase.Order, error) {
	return r.findOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *PurchaseOrderRepo) findOne(ctx context.Context, where squirrel.Eq, key string) (*purchase.Order, error) {
	sql, args, err := postgres.Builder().
		Select(r.orderCols...).
		From(purchaseOrderTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build order query: %w", err)
	}

	var order purchase.Order
	if err := pgxscan.Get(ctx, r.querier(ctx), &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", key)
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	order.Items, err = r.getItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PurchaseOrderRepo) getItems(ctx context.Context, orderID id.ID) ([]purchase.OrderItem, error) {
	sql, args, err := postgres.Builder().
		Select(r.itemCols...).
		From(purchaseItemTable).
		Where(squirrel.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []purchase.OrderItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get purchase order items: %w", err)
	}
	return items, nil
}

func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchase.Filter) ([]purchase.Order, error) {
	q := postgres.Builder().
		Select(r.orderCols...).
		From(purchaseOrderTable).
		OrderBy("order_date DESC, code DESC")

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if len(filter.Status) > 0 {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"order_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"order_date": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build order list: %w", err)
	}

	var orders []purchase.Order
	if err := pgxscan.Select(ctx, r.querier(ctx), &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return orders, nil
}

func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status purchase.Status) error {
	sql, args, err := postgres.Builder().
		Update(purchaseOrderTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order", orderID)
	}
	return nil
}

func (r *PurchaseOrderRepo) UpdateItem(ctx context.Context, item *purchase.OrderItem) error {
	data := postgres.StructToMap(item)
	delete(data, "id")
	delete(data, "order_id")

	sql, args, err := postgres.Builder().
		Update(purchaseItemTable).
		SetMap(data).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build item update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order item", item.ID)
	}
	return nil
}

// ListIncoming returns the unreceived remainder of every open order line.
// Fully received lines are filtered out so netting never sees zero rows.
func (r *PurchaseOrderRepo) ListIncoming(ctx context.Context) ([]purchase.IncomingLine, error) {
	sql, args, err := postgres.Builder().
		Select(
			"i.part_id",
			"i.order_qty - i.received_qty AS remaining",
			"o.expected_date",
		).
		From(purchaseItemTable+" i").
		Join(purchaseOrderTable+" o ON o.id = i.order_id").
		Where(squirrel.Eq{"o.status": purchase.OpenStatuses}).
		Where(squirrel.Expr("i.order_qty > i.received_qty")).
		OrderBy("o.expected_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build incoming query: %w", err)
	}

	var lines []purchase.IncomingLine
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list incoming supply: %w", err)
	}
	return lines, nil
}
