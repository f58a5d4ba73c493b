package transfers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrDuplicateTransfer = errors.New("duplicate transfer")

// Record is the audit row written for every committed transfer, inside the
// same transaction as the two balance writes.
type Record struct {
	ID         uuid.UUID
	FromCardID uuid.UUID
	ToCardID   uuid.UUID
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

type Transfers interface {
	Insert(tx *sql.Tx, rec Record) error
}
