package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

// FindOwned resolves a card for its owner. A card owned by someone else is
// reported exactly like a missing one.
func (r *cardsRepo) FindOwned(ctx context.Context, ownerID, cardID uuid.UUID) (*cards.Card, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE id = $1
		  AND owner_id = $2
	`, cardID, ownerID)

	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cards.ErrCardNotFound
		}

		return nil, fmt.Errorf("find owned card: %w", err)
	}

	return c, nil
}
