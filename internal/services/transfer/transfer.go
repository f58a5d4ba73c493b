package transfer

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/mkravchenko/cardvault/internal/infra/pgutils"
	"github.com/mkravchenko/cardvault/internal/repos/cards"
	pgcards "github.com/mkravchenko/cardvault/internal/repos/cards/postgres"
	"github.com/mkravchenko/cardvault/internal/repos/transfers"
	pgtransfers "github.com/mkravchenko/cardvault/internal/repos/transfers/postgres"
)

const defaultMaxAttempts = 5

// cardStore is the slice of the card repository the engine needs: owned-card
// resolution and the conditional balance write.
type cardStore interface {
	FindOwned(ctx context.Context, ownerID, cardID uuid.UUID) (*cards.Card, error)
	UpdateBalance(tx *sql.Tx, upd cards.BalanceUpdate) error
}

type auditLog interface {
	Insert(tx *sql.Tx, rec transfers.Record) error
}

type txRunner func(ctx context.Context, fn func(*sql.Tx) error) error

// Service moves funds between two cards of the same owner.
//
// A transfer validates first and mutates last: amount parsing, ownership
// resolution, status, currency and funds checks all happen against a read
// snapshot, then both balances are written conditionally on the versions of
// that snapshot inside one transaction. A version conflict rolls the whole
// transaction back and the sequence is retried from a fresh read, so a losing
// attempt leaves no observable effect.
type Service struct {
	store       cardStore
	audit       auditLog
	runTx       txRunner
	maxAttempts int
}

func New(db *sql.DB) *Service {
	return &Service{
		store: pgcards.New(db),
		audit: pgtransfers.New(db),
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
		maxAttempts: defaultMaxAttempts,
	}
}

// Transfer debits amountText from the caller's source card and credits it to
// the caller's destination card.
func (s *Service) Transfer(ctx context.Context, callerID, fromID, toID uuid.UUID, amountText string) error {
	amount, err := parseAmount(amountText)
	if err != nil {
		return err
	}

	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.attempt(ctx, callerID, fromID, toID, amount)
		if !retryableConflict(err) {
			return err
		}

		lastErr = err

		slog.DebugContext(ctx, "transfer attempt lost to concurrent writer, retrying",
			"from", fromID, "to", toID, "attempt", attempt)
	}

	return fmt.Errorf("%w: %v", ErrContention, lastErr)
}

func (s *Service) attempt(ctx context.Context, callerID, fromID, toID uuid.UUID, amount decimal.Decimal) error {
	from, err := s.store.FindOwned(ctx, callerID, fromID)
	if err != nil {
		return fmt.Errorf("resolve source card: %w", err)
	}

	to, err := s.store.FindOwned(ctx, callerID, toID)
	if err != nil {
		return fmt.Errorf("resolve destination card: %w", err)
	}

	if fromID == toID {
		return ErrSameCard
	}

	if from.Status != cards.StatusActive {
		return fmt.Errorf("card %s: %w", from.ID, ErrCardNotActive)
	}

	if to.Status != cards.StatusActive {
		return fmt.Errorf("card %s: %w", to.ID, ErrCardNotActive)
	}

	if from.Currency != to.Currency {
		return fmt.Errorf("%s vs %s: %w", from.Currency, to.Currency, ErrCurrencyMismatch)
	}

	if from.Balance.LessThan(amount) {
		return fmt.Errorf("card %s: %w", from.ID, ErrInsufficientFunds)
	}

	rec := transfers.Record{
		ID:         uuid.New(),
		FromCardID: from.ID,
		ToCardID:   to.ID,
		Amount:     amount,
	}

	debit := cards.BalanceUpdate{
		CardID:          from.ID,
		NewBalance:      from.Balance.Sub(amount),
		ExpectedVersion: from.Version,
	}
	credit := cards.BalanceUpdate{
		CardID:          to.ID,
		NewBalance:      to.Balance.Add(amount),
		ExpectedVersion: to.Version,
	}

	// Row locks are taken in card-id order, whichever direction the money
	// moves. Two opposite transfers over the same pair then queue on the same
	// first row instead of deadlocking on each other.
	first, second := debit, credit
	if bytes.Compare(credit.CardID[:], debit.CardID[:]) < 0 {
		first, second = credit, debit
	}

	return s.runTx(ctx, func(tx *sql.Tx) error {
		for _, upd := range []cards.BalanceUpdate{first, second} {
			err := s.store.UpdateBalance(tx, upd)
			if err != nil {
				return fmt.Errorf("update balance of card %s: %w", upd.CardID, err)
			}
		}

		err := s.audit.Insert(tx, rec)
		if err != nil {
			return fmt.Errorf("record transfer: %w", err)
		}

		return nil
	})
}

// retryableConflict reports whether an attempt failed only because it raced a
// concurrent writer: a stale-version conditional write, or a transaction the
// database aborted with serialization_failure (40001) or deadlock_detected
// (40P01). All of these are safe to retry from a fresh read.
func retryableConflict(err error) bool {
	if errors.Is(err, cards.ErrVersionConflict) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	return false
}

// parseAmount accepts a decimal string with at most two fractional digits of
// significance. Amounts are exact: no floats anywhere on this path.
func parseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%q: %w", text, ErrInvalidAmount)
	}

	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%q must be positive: %w", text, ErrInvalidAmount)
	}

	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Decimal{}, fmt.Errorf("%q has sub-cent precision: %w", text, ErrInvalidAmount)
	}

	return amount, nil
}
