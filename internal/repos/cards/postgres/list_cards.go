package cards

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

func (r *cardsRepo) List(ctx context.Context, p cards.ListParams) ([]cards.Card, error) {
	limit, offset := limitOffset(p)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		`+orderClause(p.Sort)+`
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

func (r *cardsRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, p cards.ListParams) ([]cards.Card, error) {
	limit, offset := limitOffset(p)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE owner_id = $1
		`+orderClause(p.Sort)+`
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cards by owner: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

func collectCards(rows *sql.Rows) ([]cards.Card, error) {
	out := make([]cards.Card, 0)

	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}

		out = append(out, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}

	return out, nil
}
