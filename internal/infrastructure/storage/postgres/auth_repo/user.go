// Package auth_repo provides PostgreSQL implementations of the auth
// repositories.
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

const userTable = "sys_users"

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
	cols      []string
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		cols:      postgres.ExtractDBColumns[auth.User](),
	}
}

func (r *UserRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	sql, args, err := postgres.Builder().
		Insert(userTable).
		SetMap(postgres.StructToMap(user)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("user", "email", user.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": userID}, userID.String())
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email}, email)
}

func (r *UserRepo) findOne(ctx context.Context, where squirrel.Eq, key string) (*auth.User, error) {
	sql, args, err := postgres.Builder().
		Select(r.cols...).
		From(userTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	var user auth.User
	if err := pgxscan.Get(ctx, r.querier(ctx), &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	sql, args, err := postgres.Builder().
		Select("1").
		From(userTable).
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	if err := pgxscan.Get(ctx, r.querier(ctx), &one, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return true, nil
}

func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	data := postgres.StructToMap(user)
	delete(data, "id")
	delete(data, "created_at")

	sql, args, err := postgres.Builder().
		Update(userTable).
		SetMap(data).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID)
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context) ([]auth.User, error) {
	sql, args, err := postgres.Builder().
		Select(r.cols...).
		From(userTable).
		OrderBy("email ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user list: %w", err)
	}

	var users []auth.User
	if err := pgxscan.Select(ctx, r.querier(ctx), &users, sql, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
