// Package task_repo provides PostgreSQL implementations of the audit
// and picking repositories.
package task_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/audit"
	"partsync/internal/infrastructure/storage/postgres"
)

const (
	auditTable            = "task_audits"
	auditItemTable        = "task_audit_items"
	auditDiscrepancyTable = "task_audit_discrepancies"
)

// AuditRepo implements audit.Repository.
type AuditRepo struct {
	txManager   *postgres.TxManager
	recordCols  []string
	itemCols    []string
	discrepCols []string
}

var _ audit.Repository = (*AuditRepo)(nil)

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txManager *postgres.TxManager) *AuditRepo {
	return &AuditRepo{
		txManager:   txManager,
		recordCols:  postgres.ExtractDBColumns[audit.Record](),
		itemCols:    postgres.ExtractDBColumns[audit.Item](),
		discrepCols: postgres.ExtractDBColumns[audit.DiscrepancyLog](),
	}
}

func (r *AuditRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *AuditRepo) Create(ctx context.Context, record *audit.Record) error {
	querier := r.querier(ctx)

	sql, args, err := postgres.Builder().
		Insert(auditTable).
		SetMap(postgres.StructToMap(record)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("audit", "code", record.Code)
		}
		return fmt.Errorf("insert audit: %w", err)
	}

	for _, item := range record.Items {
		sql, args, err := postgres.Builder().
			Insert(auditItemTable).
			SetMap(postgres.StructToMap(&item)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build audit item insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert audit item: %w", err)
		}
	}
	return nil
}

func (r *AuditRepo) GetByID(ctx context.Context, auditID id.ID) (*audit.Record, error) {
	sql, args, err := postgres.Builder().
		Select(r.recordCols...).
		From(auditTable).
		Where(squirrel.Eq{"id": auditID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var record audit.Record
	if err := pgxscan.Get(ctx, r.querier(ctx), &record, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("audit", auditID)
		}
		return nil, fmt.Errorf("get audit: %w", err)
	}

	sql, args, err = postgres.Builder().
		Select(r.itemCols...).
		From(auditItemTable).
		Where(squirrel.Eq{"audit_id": auditID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit items query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &record.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("get audit items: %w", err)
	}
	return &record, nil
}

func (r *AuditRepo) List(ctx context.Context, filter audit.Filter) ([]audit.Record, error) {
	q := postgres.Builder().
		Select(r.recordCols...).
		From(auditTable).
		OrderBy("audit_date DESC, code DESC")

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
		return nil, fmt.Errorf("build audit list: %w", err)
	}

	var records []audit.Record
	if err := pgxscan.Select(ctx, r.querier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	return records, nil
}

func (r *AuditRepo) Update(ctx context.Context, record *audit.Record) error {
	data := postgres.StructToMap(record)
	delete(data, "id")
	delete(data, "created_at")

	sql, args, err := postgres.Builder().
		Update(auditTable).
		SetMap(data).
		Where(squirrel.Eq{"id": record.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update audit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("audit", record.ID)
	}
	return nil
}

func (r *AuditRepo) UpdateItem(ctx context.Context, item *audit.Item) error {
	data := postgres.StructToMap(item)
	delete(data, "id")
	delete(data, "audit_id")

	sql, args, err := postgres.Builder().
		Update(auditItemTable).
		SetMap(data).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit item update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update audit item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("audit item", item.ID)
	}
	return nil
}

func (r *AuditRepo) ActiveAuditParts(ctx context.Context) (map[id.ID]id.ID, error) {
	sql, args, err := postgres.Builder().
		Select("i.part_id", "i.audit_id").
		From(auditItemTable+" i").
		Join(auditTable+" a ON a.id = i.audit_id").
		Where(squirrel.Eq{"a.status": []audit.Status{audit.StatusPlanned, audit.StatusInProgress}}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active parts query: %w", err)
	}

	var rows []struct {
		PartID  id.ID `db:"part_id"`
		AuditID id.ID `db:"audit_id"`
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list active audit parts: %w", err)
	}

	parts := make(map[id.ID]id.ID, len(rows))
	for _, row := range rows {
		parts[row.PartID] = row.AuditID
	}
	return parts, nil
}

func (r *AuditRepo) AppendDiscrepancy(ctx context.Context, log *audit.DiscrepancyLog) error {
	sql, args, err := postgres.Builder().
		Insert(auditDiscrepancyTable).
		SetMap(postgres.StructToMap(log)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build discrepancy insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert discrepancy: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListDiscrepancies(ctx context.Context, auditID id.ID) ([]audit.DiscrepancyLog, error) {
	sql, args, err := postgres.Builder().
		Select(r.discrepCols...).
		From(auditDiscrepancyTable).
		Where(squirrel.Eq{"audit_id": auditID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build discrepancies query: %w", err)
	}

	var logs []audit.DiscrepancyLog
	if err := pgxscan.Select(ctx, r.querier(ctx), &logs, sql, args...); err != nil {
		return nil, fmt.Errorf("list discrepancies: %w", err)
	}
	return logs, nil
}

func (r *AuditRepo) SetDiscrepancyStatus(ctx context.Context, auditID id.ID, status audit.DiscrepancyStatus) error {
	sql, args, err := postgres.Builder().
		Update(auditDiscrepancyTable).
		Set("status", status).
		Where(squirrel.Eq{"audit_id": auditID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build discrepancy status update: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update discrepancy status: %w", err)
	}
	return nil
}
