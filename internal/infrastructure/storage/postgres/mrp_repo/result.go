// Package mrp_repo provides the PostgreSQL implementation of the MRP
// result repository.
package mrp_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/id"
	"partsync/internal/domain/mrp"
	"partsync/internal/infrastructure/storage/postgres"
)

const resultTable = "mrp_results"

// ResultRepo implements mrp.ResultRepository. Full recomputes rewrite
// the whole PENDING set, so inserts go through the COPY protocol rather
// than row-by-row INSERTs.
type ResultRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
	cols      []string
}

var _ mrp.ResultRepository = (*ResultRepo)(nil)

// NewResultRepo creates a new MRP result repository.
func NewResultRepo(txManager *postgres.TxManager) *ResultRepo {
	return &ResultRepo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
		cols:      postgres.ExtractDBColumns[mrp.Result](),
	}
}

func (r *ResultRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *ResultRepo) ReplaceAll(ctx context.Context, results []mrp.Result) error {
	return r.replace(ctx, squirrel.Eq{"status": mrp.ResultPending}, results)
}

func (r *ResultRepo) ReplaceForSalesOrder(ctx context.Context, salesOrderID id.ID, results []mrp.Result) error {
	return r.replace(ctx, squirrel.Eq{
		"status":         mrp.ResultPending,
		"sales_order_id": salesOrderID,
	}, results)
}

// replace deletes the targeted PENDING rows and bulk-inserts the new
// set. Callers run it inside the engine's transaction; without one the
// COPY step fails, so the delete is never left unpaired.
func (r *ResultRepo) replace(ctx context.Context, where squirrel.Eq, results []mrp.Result) error {
	sql, args, err := postgres.Builder().
		Delete(resultTable).
		Where(where).
		ToSql()
	if err != nil {
		return fmt.Errorf("build result delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete pending results: %w", err)
	}

	if len(results) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(results))
	for i := range results {
		data := postgres.StructToMap(&results[i])
		row := make([]any, 0, len(r.cols))
		for _, col := range r.cols {
			row = append(row, data[col])
		}
		rows = append(rows, row)
	}

	if _, err := r.batch.CopyFromSlice(ctx, resultTable, r.cols, rows); err != nil {
		return fmt.Errorf("copy results: %w", err)
	}
	return nil
}

func (r *ResultRepo) GetByIDs(ctx context.Context, ids []id.ID) ([]mrp.Result, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql, args, err := postgres.Builder().
		Select(r.cols...).
		From(resultTable).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build results query: %w", err)
	}

	var results []mrp.Result
	if err := pgxscan.Select(ctx, r.querier(ctx), &results, sql, args...); err != nil {
		return nil, fmt.Errorf("get results: %w", err)
	}
	return results, nil
}

func (r *ResultRepo) List(ctx context.Context, filter mrp.ResultFilter) ([]mrp.Result, error) {
	q := postgres.Builder().
		Select(r.cols...).
		From(resultTable).
		OrderBy("suggested_order_date ASC NULLS LAST, part_id ASC")

	if filter.PartID != nil {
		q = q.Where(squirrel.Eq{"part_id": *filter.PartID})
	}
	if filter.SalesOrderID != nil {
		q = q.Where(squirrel.Eq{"sales_order_id": *filter.SalesOrderID})
	}
	if len(filter.Status) > 0 {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if len(filter.Urgency) > 0 {
		q = q.Where(squirrel.Eq{"urgency": filter.Urgency})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build result list: %w", err)
	}

	var results []mrp.Result
	if err := pgxscan.Select(ctx, r.querier(ctx), &results, sql, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

func (r *ResultRepo) UpdateStatus(ctx context.Context, ids []id.ID, status mrp.ResultStatus) error {
	if len(ids) == 0 {
		return nil
	}

	sql, args, err := postgres.Builder().
		Update(resultTable).
		Set("status", status).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update result status: %w", err)
	}
	return nil
}
