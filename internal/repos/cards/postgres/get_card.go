package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

func (r *cardsRepo) Get(ctx context.Context, cardID uuid.UUID) (*cards.Card, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE id = $1
	`, cardID)

	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cards.ErrCardNotFound
		}

		return nil, fmt.Errorf("get card: %w", err)
	}

	return c, nil
}
