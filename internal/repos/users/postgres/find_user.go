package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkravchenko/cardvault/internal/repos/users"
)

func (r *usersRepo) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`, username)

	return scanUser(row, "find user by username")
}

func (r *usersRepo) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`, id)

	return scanUser(row, "find user by id")
}

func scanUser(row *sql.Row, op string) (*users.User, error) {
	var u users.User

	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &u, nil
}
