package cards

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// seedOwner inserts a user row so cards can reference it.
func seedOwner(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(`
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, 'x', 'USER')
	`, id, "owner_"+id.String())
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	return id
}

type seedCardParams struct {
	owner    uuid.UUID
	balance  string
	status   string
	currency string
	last4    string
}

func seedCard(t *testing.T, db *sql.DB, p seedCardParams) uuid.UUID {
	t.Helper()

	if p.status == "" {
		p.status = "ACTIVE"
	}
	if p.currency == "" {
		p.currency = "USD"
	}
	if p.last4 == "" {
		p.last4 = "4242"
	}
	if p.balance == "" {
		p.balance = "0.00"
	}

	id := uuid.New()
	_, err := db.Exec(`
		INSERT INTO cards (id, owner_id, pan_enc, last4, holder_name, expiry_month, expiry_year, status, balance, currency)
		VALUES ($1, $2, 'enc', $3, 'TEST HOLDER', 12, 2030, $4, $5, $6)
	`, id, p.owner, p.last4, p.status, p.balance, p.currency)
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}

	return id
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}

	return d
}
