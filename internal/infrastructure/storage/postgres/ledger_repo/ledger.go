// Package ledger_repo provides the PostgreSQL implementation of the
// inventory ledger storage.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/ledger"
	"partsync/internal/infrastructure/storage/postgres"
)

const (
	inventoryTable   = "inv_inventory"
	transactionTable = "inv_transactions"
)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	invCols   []string
	txnCols   []string
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		invCols:   postgres.ExtractDBColumns[ledger.Inventory](),
		txnCols:   postgres.ExtractDBColumns[ledger.Transaction](),
	}
}

func (r *LedgerRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *LedgerRepo) getInventory(ctx context.Context, partID id.ID, forUpdate bool) (*ledger.Inventory, error) {
	q := postgres.Builder().
		Select(r.invCols...).
		From(inventoryTable).
		Where(squirrel.Eq{"part_id": partID}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build inventory query: %w", err)
	}

	var inv ledger.Inventory
	if err := pgxscan.Get(ctx, r.querier(ctx), &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory", partID)
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &inv, nil
}

func (r *LedgerRepo) GetInventory(ctx context.Context, partID id.ID) (*ledger.Inventory, error) {
	return r.getInventory(ctx, partID, false)
}

func (r *LedgerRepo) GetInventoryForUpdate(ctx context.Context, partID id.ID) (*ledger.Inventory, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("GetInventoryForUpdate requires transaction context")
	}
	return r.getInventory(ctx, partID, true)
}

func (r *LedgerRepo) ListInventories(ctx context.Context, partIDs []id.ID) ([]ledger.Inventory, error) {
	q := postgres.Builder().
		Select(r.invCols...).
		From(inventoryTable)
	if len(partIDs) > 0 {
		q = q.Where(squirrel.Eq{"part_id": partIDs})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build inventory list: %w", err)
	}

	var rows []ledger.Inventory
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list inventories: %w", err)
	}
	return rows, nil
}

func (r *LedgerRepo) CreateInventory(ctx context.Context, inv *ledger.Inventory) error {
	sql, args, err := postgres.Builder().
		Insert(inventoryTable).
		SetMap(postgres.StructToMap(inv)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build inventory insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("inventory", "part", inv.PartID.String())
		}
		return fmt.Errorf("insert inventory: %w", err)
	}
	return nil
}

func (r *LedgerRepo) UpdateInventory(ctx context.Context, inv *ledger.Inventory) error {
	data := postgres.StructToMap(inv)
	delete(data, "part_id")

	sql, args, err := postgres.Builder().
		Update(inventoryTable).
		SetMap(data).
		Where(squirrel.Eq{"part_id": inv.PartID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build inventory update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory", inv.PartID)
	}
	return nil
}

func (r *LedgerRepo) AppendTransaction(ctx context.Context, txn *ledger.Transaction) error {
	sql, args, err := postgres.Builder().
		Insert(transactionTable).
		SetMap(postgres.StructToMap(txn)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build transaction insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListTransactionsByPart(ctx context.Context, partID id.ID, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	q := postgres.Builder().
		Select(r.txnCols...).
		From(transactionTable).
		Where(squirrel.Eq{"part_id": partID}).
		OrderBy("created_at DESC")

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transaction list: %w", err)
	}

	var txns []ledger.Transaction
	if err := pgxscan.Select(ctx, r.querier(ctx), &txns, sql, args...); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

func (r *LedgerRepo) ListTransactionsByReference(ctx context.Context, ref ledger.Reference) ([]ledger.Transaction, error) {
	sql, args, err := postgres.Builder().
		Select(r.txnCols...).
		From(transactionTable).
		Where(squirrel.Eq{"reference_type": ref.Type, "reference_id": ref.ID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transaction query: %w", err)
	}

	var txns []ledger.Transaction
	if err := pgxscan.Select(ctx, r.querier(ctx), &txns, sql, args...); err != nil {
		return nil, fmt.Errorf("list transactions by reference: %w", err)
	}
	return txns, nil
}
