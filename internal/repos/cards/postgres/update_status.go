package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

func (r *cardsRepo) UpdateStatus(ctx context.Context, cardID uuid.UUID, s cards.Status) (*cards.Card, error) {
	// The version bump makes any transfer snapshot taken before the status
	// change stale, so a block takes effect against in-flight transfers too.
	row := r.db.QueryRowContext(ctx, `
		UPDATE cards
		SET status = $2,
		    version = version + 1
		WHERE id = $1
		RETURNING `+cardColumns+`
	`, cardID, s)

	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cards.ErrCardNotFound
		}

		return nil, fmt.Errorf("update card status: %w", err)
	}

	return c, nil
}
