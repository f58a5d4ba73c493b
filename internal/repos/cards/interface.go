package cards

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrCardNotFound is returned when a card does not exist or does not belong
// to the requesting owner. The two cases are deliberately indistinguishable
// so that a lookup never reveals whether a foreign card exists.
var ErrCardNotFound = errors.New("card not found")

// ErrVersionConflict is returned by UpdateBalance when the row changed since
// it was read. Callers are expected to re-read and retry.
var ErrVersionConflict = errors.New("card version conflict")

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusExpired Status = "EXPIRED"
)

// ValidStatus reports whether s is one of the known card statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusBlocked, StatusExpired:
		return true
	}
	return false
}

// Card is a custodial balance-bearing record. Owner and currency are fixed at
// creation; balance and status change in place. Version increments on every
// balance and status update and backs the conditional-write protocol.
type Card struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	PanEnc      string
	Last4       string
	HolderName  string
	ExpiryMonth int
	ExpiryYear  int
	Status      Status
	Balance     decimal.Decimal
	Currency    string
	Version     int64
	CreatedAt   time.Time
}

// MaskedNumber renders the card number for display, keeping only the last
// four digits.
func (c *Card) MaskedNumber() string {
	return "**** **** **** " + c.Last4
}

// Expired reports whether the card's expiry month has passed at the given
// time. This is a display predicate; transfer eligibility is decided by the
// stored status alone.
func (c *Card) Expired(now time.Time) bool {
	if c.ExpiryYear != now.Year() {
		return c.ExpiryYear < now.Year()
	}
	return c.ExpiryMonth < int(now.Month())
}

// BalanceUpdate is a conditional single-row write: set the card's balance to
// NewBalance only if its version still equals ExpectedVersion.
type BalanceUpdate struct {
	CardID          uuid.UUID
	NewBalance      decimal.Decimal
	ExpectedVersion int64
}

// ListParams controls pagination and ordering for card listings.
type ListParams struct {
	Page int
	Size int
	Sort string // "column,asc|desc", validated by the repository
}

type Cards interface {
	// FindOwned returns the card only when it exists and belongs to ownerID.
	FindOwned(ctx context.Context, ownerID, cardID uuid.UUID) (*Card, error)
	Get(ctx context.Context, cardID uuid.UUID) (*Card, error)
	List(ctx context.Context, p ListParams) ([]Card, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, p ListParams) ([]Card, error)
	Create(ctx context.Context, c *Card) error
	UpdateStatus(ctx context.Context, cardID uuid.UUID, s Status) (*Card, error)
	Delete(ctx context.Context, cardID uuid.UUID) error

	// UpdateBalance applies one conditional balance write inside the caller's
	// transaction. Zero rows affected means the snapshot went stale and the
	// whole transaction must be rolled back and retried.
	UpdateBalance(tx *sql.Tx, upd BalanceUpdate) error
}
