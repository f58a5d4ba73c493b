package cards

import (
	"context"
	"fmt"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

func (r *cardsRepo) Create(ctx context.Context, c *cards.Card) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cards (id, owner_id, pan_enc, last4, holder_name, expiry_month, expiry_year, status, balance, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING version, created_at
	`,
		c.ID, c.OwnerID, c.PanEnc, c.Last4, c.HolderName,
		c.ExpiryMonth, c.ExpiryYear, c.Status, c.Balance, c.Currency,
	).Scan(&c.Version, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}

	return nil
}
