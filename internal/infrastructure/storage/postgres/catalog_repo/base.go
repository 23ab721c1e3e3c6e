// Package catalog_repo provides PostgreSQL implementations of the
// master-data repositories (parts, suppliers, products).
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/infrastructure/storage/postgres"
)

// baseRepo provides common CRUD plumbing for catalog entities.
// Embed in specific catalog repositories.
type baseRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	selectCols []string
}

func newBaseRepo[T any](txManager *postgres.TxManager, tableName string) *baseRepo[T] {
	return &baseRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		selectCols: postgres.ExtractDBColumns[T](),
	}
}

func (r *baseRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *baseRepo[T]) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// rowMap projects an entity's "db"-tagged fields onto known columns.
func (r *baseRepo[T]) rowMap(entity any) map[string]any {
	data := postgres.StructToMap(entity)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered
}

func (r *baseRepo[T]) insert(ctx context.Context, entity any) error {
	data := r.rowMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := postgres.Builder().
		Insert(r.tableName).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

func (r *baseRepo[T]) update(ctx context.Context, entity any) error {
	data := r.rowMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}
	delete(data, "id")
	delete(data, "created_at")

	sql, args, err := postgres.Builder().
		Update(r.tableName).
		SetMap(data).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID)
	}
	return nil
}

func (r *baseRepo[T]) findOne(ctx context.Context, q squirrel.SelectBuilder, key any) (*T, error) {
	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entity T
	if err := pgxscan.Get(ctx, r.querier(ctx), &entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.tableName, key)
		}
		return nil, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return &entity, nil
}

func (r *baseRepo[T]) findMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return items, nil
}

func (r *baseRepo[T]) getByID(ctx context.Context, entityID id.ID) (*T, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}), entityID)
}
