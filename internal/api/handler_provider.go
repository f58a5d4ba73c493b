package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkravchenko/cardvault/internal/repos/cards"
	"github.com/mkravchenko/cardvault/internal/repos/users"
	"github.com/mkravchenko/cardvault/internal/services/auth"
	"github.com/mkravchenko/cardvault/internal/services/lifecycle"
	"github.com/mkravchenko/cardvault/internal/services/transfer"
)

type authService interface {
	Register(ctx context.Context, username, password string, role users.Role) (*users.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	VerifyToken(token string) (uuid.UUID, users.Role, error)
}

type cardService interface {
	CreateCard(ctx context.Context, p lifecycle.CreateCardParams) (*cards.Card, error)
	ChangeStatus(ctx context.Context, cardID uuid.UUID, status cards.Status) (*cards.Card, error)
	DeleteCard(ctx context.Context, cardID uuid.UUID) error
	ListAll(ctx context.Context, p cards.ListParams) ([]cards.Card, error)
	ListMine(ctx context.Context, ownerID uuid.UUID, p cards.ListParams) ([]cards.Card, error)
	Balance(ctx context.Context, callerID, cardID uuid.UUID) (decimal.Decimal, error)
	RequestBlock(ctx context.Context, callerID, cardID uuid.UUID) (*cards.Card, error)
}

type transferService interface {
	Transfer(ctx context.Context, callerID, fromID, toID uuid.UUID, amountText string) error
}

// HandlerProvider wraps the services and exposes HTTP handlers.
type HandlerProvider struct {
	auth      authService
	cards     cardService
	transfers transferService
}

// NewHandler returns a new handler provider.
func NewHandler(deps Deps) *HandlerProvider {
	return &HandlerProvider{
		auth:      deps.Auth,
		cards:     deps.Cards,
		transfers: deps.Transfers,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON")
	}

	return nil
}

func parseCardIDFromPath(r *http.Request) (uuid.UUID, error) {
	idStr := chi.URLParam(r, "cardId")
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("missing cardId")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid cardId: %w", err)
	}

	return id, nil
}

func parseListParams(r *http.Request) cards.ListParams {
	q := r.URL.Query()

	p := cards.ListParams{Sort: q.Get("sort")}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil {
		p.Size = v
	}

	return p
}

// writeDomainError maps service errors onto HTTP statuses. Business-rule
// failures keep their message, since it names the card and constraint the
// caller can act on; unexpected faults collapse to a generic 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transfer.ErrInvalidAmount),
		errors.Is(err, transfer.ErrSameCard),
		errors.Is(err, transfer.ErrCurrencyMismatch),
		errors.Is(err, lifecycle.ErrInvalidCardData),
		errors.Is(err, auth.ErrInvalidUserData):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, cards.ErrCardNotFound),
		errors.Is(err, users.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, transfer.ErrCardNotActive),
		errors.Is(err, transfer.ErrInsufficientFunds),
		errors.Is(err, transfer.ErrContention),
		errors.Is(err, users.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())

	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- DTOs ---

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createCardRequest struct {
	OwnerID         string `json:"ownerId"`
	EncryptedNumber string `json:"encryptedNumber"`
	Last4           string `json:"last4"`
	HolderName      string `json:"holderName"`
	ExpiryMonth     int    `json:"expiryMonth"`
	ExpiryYear      int    `json:"expiryYear"`
	Currency        string `json:"currency"`
	InitialBalance  string `json:"initialBalance,omitempty"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

type transferRequest struct {
	FromCardID string `json:"fromCardId"`
	ToCardID   string `json:"toCardId"`
	Amount     string `json:"amount"`
}

type cardResponse struct {
	ID           string `json:"id"`
	OwnerID      string `json:"ownerId"`
	MaskedNumber string `json:"maskedNumber"`
	HolderName   string `json:"holderName"`
	ExpiryMonth  int    `json:"expiryMonth"`
	ExpiryYear   int    `json:"expiryYear"`
	Status       string `json:"status"`
	Balance      string `json:"balance"`
	Currency     string `json:"currency"`
	Expired      bool   `json:"expired"`
}

func toCardResponse(c *cards.Card) cardResponse {
	return cardResponse{
		ID:           c.ID.String(),
		OwnerID:      c.OwnerID.String(),
		MaskedNumber: c.MaskedNumber(),
		HolderName:   c.HolderName,
		ExpiryMonth:  c.ExpiryMonth,
		ExpiryYear:   c.ExpiryYear,
		Status:       string(c.Status),
		Balance:      c.Balance.StringFixed(2),
		Currency:     c.Currency,
		Expired:      c.Expired(time.Now()),
	}
}

func toCardResponses(cs []cards.Card) []cardResponse {
	out := make([]cardResponse, 0, len(cs))
	for i := range cs {
		out = append(out, toCardResponse(&cs[i]))
	}
	return out
}

// --- Auth handlers ---

// RegisterHandler handles POST /auth/register. Self-registration always
// produces a regular user; admins are provisioned at deploy time.
func (h *HandlerProvider) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.auth.Register(r.Context(), req.Username, req.Password, users.RoleUser)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       u.ID.String(),
		"username": u.Username,
	})
}

// LoginHandler handles POST /auth/login.
func (h *HandlerProvider) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// --- Cardholder handlers ---

// ListMyCardsHandler handles GET /cards.
func (h *HandlerProvider) ListMyCardsHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())

	list, err := h.cards.ListMine(r.Context(), caller.ID, parseListParams(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCardResponses(list))
}

// GetBalanceHandler handles GET /cards/{cardId}/balance.
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())

	cardID, err := parseCardIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cardId in path")
		return
	}

	bal, err := h.cards.Balance(r.Context(), caller.ID, cardID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"cardId":  cardID.String(),
		"balance": bal.StringFixed(2),
	})
}

// BlockCardHandler handles POST /cards/{cardId}/block.
func (h *HandlerProvider) BlockCardHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())

	cardID, err := parseCardIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cardId in path")
		return
	}

	card, err := h.cards.RequestBlock(r.Context(), caller.ID, cardID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCardResponse(card))
}

// CreateTransferHandler handles POST /transfers.
func (h *HandlerProvider) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())

	var req transferRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fromID, err := uuid.Parse(req.FromCardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fromCardId")
		return
	}

	toID, err := uuid.Parse(req.ToCardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid toCardId")
		return
	}

	err = h.transfers.Transfer(r.Context(), caller.ID, fromID, toID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Admin handlers ---

// CreateCardHandler handles POST /admin/cards.
func (h *HandlerProvider) CreateCardHandler(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ownerId")
		return
	}

	initial := decimal.Zero
	if req.InitialBalance != "" {
		initial, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid initialBalance")
			return
		}
	}

	card, err := h.cards.CreateCard(r.Context(), lifecycle.CreateCardParams{
		OwnerID:         ownerID,
		EncryptedNumber: req.EncryptedNumber,
		Last4:           req.Last4,
		HolderName:      req.HolderName,
		ExpiryMonth:     req.ExpiryMonth,
		ExpiryYear:      req.ExpiryYear,
		Currency:        req.Currency,
		InitialBalance:  initial,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCardResponse(card))
}

// ListAllCardsHandler handles GET /admin/cards.
func (h *HandlerProvider) ListAllCardsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.cards.ListAll(r.Context(), parseListParams(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCardResponses(list))
}

// ChangeCardStatusHandler handles PATCH /admin/cards/{cardId}/status.
func (h *HandlerProvider) ChangeCardStatusHandler(w http.ResponseWriter, r *http.Request) {
	cardID, err := parseCardIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cardId in path")
		return
	}

	var req changeStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.cards.ChangeStatus(r.Context(), cardID, cards.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCardResponse(card))
}

// DeleteCardHandler handles DELETE /admin/cards/{cardId}.
func (h *HandlerProvider) DeleteCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID, err := parseCardIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cardId in path")
		return
	}

	err = h.cards.DeleteCard(r.Context(), cardID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
