package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkravchenko/cardvault/internal/repos/users"
)

func (r *usersRepo) Create(ctx context.Context, u *users.User) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, u.ID, u.Username, u.PasswordHash, u.Role).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return users.ErrUsernameTaken
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}
