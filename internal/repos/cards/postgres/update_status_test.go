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

func TestCards_UpdateStatus_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		startState string
		missing    bool
		newStatus  cards.Status
		wantErr    error
	}{
		{
			name:       "active card becomes blocked",
			startState: "ACTIVE",
			newStatus:  cards.StatusBlocked,
		},
		{
			name:       "blocked card becomes active again",
			startState: "BLOCKED",
			newStatus:  cards.StatusActive,
		},
		{
			name:      "missing card reports not found",
			missing:   true,
			newStatus: cards.StatusBlocked,
			wantErr:   cards.ErrCardNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			repo := New(db)

			var cardID uuid.UUID
			if tt.missing {
				cardID = uuid.New()
			} else {
				cardID = seedCard(t, db, seedCardParams{owner: seedOwner(t, db), status: tt.startState})
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			got, err := repo.UpdateStatus(ctx, cardID, tt.newStatus)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpdateStatus error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if got.Status != tt.newStatus {
				t.Fatalf("returned status = %q, want %q", got.Status, tt.newStatus)
			}
			// a status change must invalidate balance snapshots read before it
			if got.Version != 1 {
				t.Fatalf("version after status change = %d, want 1", got.Version)
			}

			stored, err := repo.Get(ctx, cardID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if stored.Status != tt.newStatus {
				t.Fatalf("stored status = %q, want %q", stored.Status, tt.newStatus)
			}
			if stored.Version != 1 {
				t.Fatalf("stored version = %d, want 1", stored.Version)
			}
		})
	}
}
