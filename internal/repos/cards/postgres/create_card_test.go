package cards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkravchenko/cardvault/internal/infra/pgtestutil"
	"github.com/mkravchenko/cardvault/internal/repos/cards"
)

func TestCards_Create_RoundTrip(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	owner := seedOwner(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	card := &cards.Card{
		ID:          uuid.New(),
		OwnerID:     owner,
		PanEnc:      "enc-payload",
		Last4:       "1111",
		HolderName:  "JANE ROE",
		ExpiryMonth: 6,
		ExpiryYear:  2031,
		Status:      cards.StatusActive,
		Balance:     mustDecimal(t, "25.50"),
		Currency:    "EUR",
	}

	err := repo.Create(ctx, card)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if card.Version != 0 {
		t.Fatalf("fresh card version = %d, want 0", card.Version)
	}
	if card.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not populated")
	}

	got, err := repo.Get(ctx, card.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.OwnerID != owner || got.Last4 != "1111" || got.HolderName != "JANE ROE" {
		t.Fatalf("stored card mismatch: %+v", got)
	}
	if !got.Balance.Equal(card.Balance) {
		t.Fatalf("balance = %s, want %s", got.Balance, card.Balance)
	}
	if got.Currency != "EUR" {
		t.Fatalf("currency = %q, want EUR", got.Currency)
	}
	if got.Status != cards.StatusActive {
		t.Fatalf("status = %q, want ACTIVE", got.Status)
	}
}

func TestCards_Delete(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	owner := seedOwner(t, db)
	cardID := seedCard(t, db, seedCardParams{owner: owner})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := repo.Delete(ctx, cardID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err = repo.Get(ctx, cardID)
	if !errors.Is(err, cards.ErrCardNotFound) {
		t.Fatalf("Get after delete = %v, want ErrCardNotFound", err)
	}

	err = repo.Delete(ctx, cardID)
	if !errors.Is(err, cards.ErrCardNotFound) {
		t.Fatalf("second Delete = %v, want ErrCardNotFound", err)
	}
}
