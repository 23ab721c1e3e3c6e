package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/domain/auth"
	"partsync/internal/infrastructure/storage/postgres"
)

const tokenTable = "sys_refresh_tokens"

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txManager *postgres.TxManager
	cols      []string
}

var _ auth.TokenRepository = (*TokenRepo)(nil)

// NewTokenRepo creates a new refresh token repository.
func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{
		txManager: txManager,
		cols:      postgres.ExtractDBColumns[auth.RefreshToken](),
	}
}

func (r *TokenRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	sql, args, err := postgres.Builder().
		Insert(tokenTable).
		SetMap(postgres.StructToMap(token)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build token insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	sql, args, err := postgres.Builder().
		Select(r.cols...).
		From(tokenTable).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build token query: %w", err)
	}

	var token auth.RefreshToken
	if err := pgxscan.Get(ctx, r.querier(ctx), &token, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("refresh token", "")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &token, nil
}

func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	sql, args, err := postgres.Builder().
		Update(tokenTable).
		Set("revoked_at", squirrel.Expr("now()")).
		Set("revoked_reason", reason).
		Where(squirrel.Eq{"id": tokenID, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build token revoke: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	sql, args, err := postgres.Builder().
		Update(tokenTable).
		Set("revoked_at", squirrel.Expr("now()")).
		Set("revoked_reason", reason).
		Where(squirrel.Eq{"user_id": userID, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build token revoke: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}
