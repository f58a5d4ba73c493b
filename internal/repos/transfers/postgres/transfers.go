package transfers

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkravchenko/cardvault/internal/repos/transfers"
)

var _ transfers.Transfers = (*transfersRepo)(nil)

type transfersRepo struct{ db *sql.DB }

func New(db *sql.DB) *transfersRepo {
	return &transfersRepo{db: db}
}

func (r *transfersRepo) Insert(tx *sql.Tx, rec transfers.Record) error {
	_, err := tx.Exec(`
		INSERT INTO transfers (id, from_card_id, to_card_id, amount)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, rec.FromCardID, rec.ToCardID, rec.Amount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return transfers.ErrDuplicateTransfer
		}

		return fmt.Errorf("insert transfer: %w", err)
	}

	return nil
}
