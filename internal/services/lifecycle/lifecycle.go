// Package lifecycle implements the administrative and cardholder-facing card
// operations: provisioning, status changes, deletion, listings, balance views
// and owner block requests. Balance movement lives in services/transfer.
package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
	pgcards "github.com/mkravchenko/cardvault/internal/repos/cards/postgres"
	"github.com/mkravchenko/cardvault/internal/repos/users"
	pgusers "github.com/mkravchenko/cardvault/internal/repos/users/postgres"
)

var ErrInvalidCardData = errors.New("invalid card data")

type Service struct {
	cards cards.Cards
	users users.Users
}

func New(db *sql.DB) *Service {
	return &Service{
		cards: pgcards.New(db),
		users: pgusers.New(db),
	}
}

type CreateCardParams struct {
	OwnerID         uuid.UUID
	EncryptedNumber string // PAN is encrypted upstream; stored opaque
	Last4           string
	HolderName      string
	ExpiryMonth     int
	ExpiryYear      int
	Currency        string
	InitialBalance  decimal.Decimal
}

func (p CreateCardParams) validate() error {
	if len(p.Last4) != 4 || !digitsOnly(p.Last4) {
		return fmt.Errorf("last4 must be four digits: %w", ErrInvalidCardData)
	}
	if p.EncryptedNumber == "" {
		return fmt.Errorf("encrypted number is required: %w", ErrInvalidCardData)
	}
	if p.HolderName == "" {
		return fmt.Errorf("holder name is required: %w", ErrInvalidCardData)
	}
	if p.ExpiryMonth < 1 || p.ExpiryMonth > 12 {
		return fmt.Errorf("expiry month must be 1..12: %w", ErrInvalidCardData)
	}
	if p.ExpiryYear < 2000 {
		return fmt.Errorf("expiry year must be four digits: %w", ErrInvalidCardData)
	}
	if !isoCurrency(p.Currency) {
		return fmt.Errorf("currency must be a three-letter ISO code: %w", ErrInvalidCardData)
	}
	if p.InitialBalance.IsNegative() {
		return fmt.Errorf("initial balance must not be negative: %w", ErrInvalidCardData)
	}
	if !p.InitialBalance.Equal(p.InitialBalance.Truncate(2)) {
		return fmt.Errorf("initial balance has sub-cent precision: %w", ErrInvalidCardData)
	}

	return nil
}

// CreateCard provisions a new ACTIVE card for an existing account holder.
func (s *Service) CreateCard(ctx context.Context, p CreateCardParams) (*cards.Card, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	_, err := s.users.FindByID(ctx, p.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	card := &cards.Card{
		ID:          uuid.New(),
		OwnerID:     p.OwnerID,
		PanEnc:      p.EncryptedNumber,
		Last4:       p.Last4,
		HolderName:  p.HolderName,
		ExpiryMonth: p.ExpiryMonth,
		ExpiryYear:  p.ExpiryYear,
		Status:      cards.StatusActive,
		Balance:     p.InitialBalance,
		Currency:    p.Currency,
	}

	err = s.cards.Create(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}

	return card, nil
}

// ChangeStatus sets an explicit lifecycle status on any card. Admin surface;
// owners go through RequestBlock.
func (s *Service) ChangeStatus(ctx context.Context, cardID uuid.UUID, status cards.Status) (*cards.Card, error) {
	if !cards.ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrInvalidCardData)
	}

	return s.cards.UpdateStatus(ctx, cardID, status)
}

func (s *Service) DeleteCard(ctx context.Context, cardID uuid.UUID) error {
	return s.cards.Delete(ctx, cardID)
}

func (s *Service) ListAll(ctx context.Context, p cards.ListParams) ([]cards.Card, error) {
	return s.cards.List(ctx, p)
}

func (s *Service) ListMine(ctx context.Context, ownerID uuid.UUID, p cards.ListParams) ([]cards.Card, error) {
	return s.cards.ListByOwner(ctx, ownerID, p)
}

// Balance returns the card balance for its owner. Anyone else gets
// cards.ErrCardNotFound, existence included.
func (s *Service) Balance(ctx context.Context, callerID, cardID uuid.UUID) (decimal.Decimal, error) {
	card, err := s.cards.FindOwned(ctx, callerID, cardID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return card.Balance, nil
}

// RequestBlock lets a cardholder block their own card. Blocking is one-way
// from the owner's side; only an admin can re-activate.
func (s *Service) RequestBlock(ctx context.Context, callerID, cardID uuid.UUID) (*cards.Card, error) {
	card, err := s.cards.FindOwned(ctx, callerID, cardID)
	if err != nil {
		return nil, err
	}

	return s.cards.UpdateStatus(ctx, card.ID, cards.StatusBlocked)
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isoCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
