package repository

import (
	"context"
	"database/sql"
	"errors"
)

// UserRepository reads account attributes. Credential management belongs to
// the external auth service.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// IsBlacklisted reports whether the account is blocked from charging.
// Unknown users are not blacklisted.
func (r *UserRepository) IsBlacklisted(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT blacklisted FROM users WHERE id = $1`
	var blacklisted bool
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&blacklisted)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return blacklisted, nil
}
