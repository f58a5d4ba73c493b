package transfer

import "errors"

var (
	// ErrInvalidAmount rejects amounts that do not parse as a decimal with at
	// most two fractional digits, or that are not strictly positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSameCard rejects transfers where source and destination coincide.
	ErrSameCard = errors.New("source and destination are the same card")

	// ErrCardNotActive rejects transfers touching a card that is not ACTIVE.
	// The wrapped message names the offending card.
	ErrCardNotActive = errors.New("card is not active")

	// ErrCurrencyMismatch rejects transfers between cards of different
	// currencies; the engine never converts.
	ErrCurrencyMismatch = errors.New("card currencies do not match")

	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrContention is surfaced when every retry of a transfer lost the
	// conditional write to a concurrent update.
	ErrContention = errors.New("transfer aborted after repeated conflicts")
)
