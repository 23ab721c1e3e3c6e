package task_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/picking"
	"partsync/internal/infrastructure/storage/postgres"
)

const (
	pickingTaskTable = "task_picking"
	pickingItemTable = "task_picking_items"
)

// PickingRepo implements picking.Repository.
type PickingRepo struct {
	txManager *postgres.TxManager
	taskCols  []string
	itemCols  []string
}

var _ picking.Repository = (*PickingRepo)(nil)

// NewPickingRepo creates a new picking repository.
func NewPickingRepo(txManager *postgres.TxManager) *PickingRepo {
	return &PickingRepo{
		txManager: txManager,
		taskCols:  postgres.ExtractDBColumns[picking.Task](),
		itemCols:  postgres.ExtractDBColumns[picking.Item](),
	}
}

func (r *PickingRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *PickingRepo) Create(ctx context.Context, task *picking.Task) error {
	querier := r.querier(ctx)

	sql, args, err := postgres.Builder().
		Insert(pickingTaskTable).
		SetMap(postgres.StructToMap(task)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build task insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict("picking task already exists for sales order")
		}
		return fmt.Errorf("insert picking task: %w", err)
	}

	for _, item := range task.Items {
		sql, args, err := postgres.Builder().
			Insert(pickingItemTable).
			SetMap(postgres.StructToMap(&item)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build task item insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert picking item: %w", err)
		}
	}
	return nil
}

func (r *PickingRepo) GetByID(ctx context.Context, taskID id.ID) (*picking.Task, error) {
	return r.findOne(ctx, squirrel.Eq{"id": taskID}, taskID.String())
}

func (r *PickingRepo) GetBySalesOrder(ctx context.Context, salesOrderID id.ID) (*picking.Task, error) {
	return r.findOne(ctx, squirrel.Eq{"sales_order_id": salesOrderID}, salesOrderID.String())
}

func (r *PickingRepo) findOne(ctx context.Context, where squirrel.Eq, key string) (*picking.Task, error) {
	sql, args, err := postgres.Builder().
		Select(r.taskCols...).
		From(pickingTaskTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task query: %w", err)
	}

	var task picking.Task
	if err := pgxscan.Get(ctx, r.querier(ctx), &task, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("picking task", key)
		}
		return nil, fmt.Errorf("get picking task: %w", err)
	}

	sql, args, err = postgres.Builder().
		Select(r.itemCols...).
		From(pickingItemTable).
		Where(squirrel.Eq{"task_id": task.ID}).
		OrderBy("sequence ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task items query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &task.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("get picking items: %w", err)
	}
	return &task, nil
}

func (r *PickingRepo) List(ctx context.Context, filter picking.Filter) ([]picking.Task, error) {
	q := postgres.Builder().
		Select(r.taskCols...).
		From(pickingTaskTable).
		OrderBy("created_at DESC")

	if len(filter.Status) > 0 {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task list: %w", err)
	}

	var tasks []picking.Task
	if err := pgxscan.Select(ctx, r.querier(ctx), &tasks, sql, args...); err != nil {
		return nil, fmt.Errorf("list picking tasks: %w", err)
	}
	return tasks, nil
}

func (r *PickingRepo) Update(ctx context.Context, task *picking.Task) error {
	data := postgres.StructToMap(task)
	delete(data, "id")
	delete(data, "created_at")

	sql, args, err := postgres.Builder().
		Update(pickingTaskTable).
		SetMap(data).
		Where(squirrel.Eq{"id": task.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build task update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update picking task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("picking task", task.ID)
	}
	return nil
}

func (r *PickingRepo) UpdateItem(ctx context.Context, item *picking.Item) error {
	data := postgres.StructToMap(item)
	delete(data, "id")
	delete(data, "task_id")

	sql, args, err := postgres.Builder().
		Update(pickingItemTable).
		SetMap(data).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build task item update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update picking item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("picking item", item.ID)
	}
	return nil
}
