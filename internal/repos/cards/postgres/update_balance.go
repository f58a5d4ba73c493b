package cards

import (
	"database/sql"
	"fmt"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

// UpdateBalance writes the new balance only if the row's version still equals
// the version the caller read. The version bump makes any concurrent writer's
// snapshot stale, so two transfers can never both apply against the same read.
func (r *cardsRepo) UpdateBalance(tx *sql.Tx, upd cards.BalanceUpdate) error {
	res, err := tx.Exec(`
		UPDATE cards
		SET balance = $3,
		    version = version + 1
		WHERE id = $1
		  AND version = $2
	`, upd.CardID, upd.ExpectedVersion, upd.NewBalance)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return cards.ErrVersionConflict
	}

	return nil
}
