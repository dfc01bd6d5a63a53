package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// UserRepository provides data access for users using pgx.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository with the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.ExternalUserID, &u.Email, &u.BirthDate, &u.Gender, &u.Point, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByExternalID retrieves a user by external_user_id without locking.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalUserID string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, external_user_id, email, birth_date, gender, point, created_at, updated_at
		 FROM "user" WHERE external_user_id = $1`, externalUserID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("user %q not found", externalUserID)
		}
		return nil, fmt.Errorf("get user by external id %s: %w", externalUserID, err)
	}
	return u, nil
}

// GetByID retrieves a user by internal ID without locking, for callers that
// already hold a foreign key (e.g. the reconciliation loop resolving a
// Payment's owning user to call the PG by externalUserId).
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, external_user_id, email, birth_date, gender, point, created_at, updated_at
		 FROM "user" WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("user %d not found", id)
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// LockExclusiveByExternalID acquires a row-level exclusive hold (SELECT ...
// FOR UPDATE) on the user keyed by externalUserID, within tx. This is the
// Reservation Engine's User-side lock and must always be acquired before any
// Product locks in the same transaction.
func (r *UserRepository) LockExclusiveByExternalID(ctx context.Context, tx database.TxQuerier, externalUserID string) (*model.User, error) {
	row := tx.QueryRow(ctx,
		`SELECT id, external_user_id, email, birth_date, gender, point, created_at, updated_at
		 FROM "user" WHERE external_user_id = $1 FOR UPDATE`, externalUserID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("user %q not found", externalUserID)
		}
		return nil, fmt.Errorf("lock user %s: %w", externalUserID, err)
	}
	return u, nil
}

// UpdatePoint persists a user's new point balance inside tx. Callers must
// already hold the row's exclusive lock from LockExclusiveByExternalID.
func (r *UserRepository) UpdatePoint(ctx context.Context, tx database.TxQuerier, userID int64, newPoint int64) error {
	_, err := tx.Exec(ctx, `UPDATE "user" SET point = $1, updated_at = now() WHERE id = $2`, newPoint, userID)
	if err != nil {
		return fmt.Errorf("update point for user %d: %w", userID, err)
	}
	return nil
}
