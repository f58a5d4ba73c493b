package cards

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

var _ cards.Cards = (*cardsRepo)(nil)

type cardsRepo struct{ db *sql.DB }

func New(db *sql.DB) *cardsRepo {
	return &cardsRepo{db: db}
}

const cardColumns = `id, owner_id, pan_enc, last4, holder_name, expiry_month, expiry_year, status, balance, currency, version, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*cards.Card, error) {
	var c cards.Card

	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.PanEnc,
		&c.Last4,
		&c.HolderName,
		&c.ExpiryMonth,
		&c.ExpiryYear,
		&c.Status,
		&c.Balance,
		&c.Currency,
		&c.Version,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// char(3) columns come back space-padded on some drivers
	c.Currency = strings.TrimSpace(c.Currency)

	return &c, nil
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"balance":    "balance",
	"status":     "status",
	"last4":      "last4",
}

// orderClause translates a "column,direction" sort parameter into a safe
// ORDER BY clause. Unknown columns fall back to created_at; the direction is
// DESC unless asc is requested, so naming the default column changes nothing.
func orderClause(sort string) string {
	column := "created_at"
	dir := "DESC"

	parts := strings.SplitN(strings.TrimSpace(sort), ",", 2)
	if col, ok := sortColumns[strings.ToLower(strings.TrimSpace(parts[0]))]; ok {
		column = col
	}
	if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "asc") {
		dir = "ASC"
	}

	return fmt.Sprintf("ORDER BY %s %s", column, dir)
}

func limitOffset(p cards.ListParams) (int, int) {
	size := p.Size
	if size <= 0 || size > 100 {
		size = 20
	}

	page := p.Page
	if page < 0 {
		page = 0
	}

	return size, page * size
}
