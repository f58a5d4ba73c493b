package cards

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

func (r *cardsRepo) Delete(ctx context.Context, cardID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cards
		WHERE id = $1
	`, cardID)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return cards.ErrCardNotFound
	}

	return nil
}
