// Package e2etests exercises the running API over HTTP. Start the stack
// (Postgres, migrator, api) first; the suite skips itself when nothing is
// listening on the target address.
package e2etests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

const timeout = 5 * time.Second

var httpClient = &http.Client{Timeout: timeout}

func baseURL() string {
	if u := os.Getenv("E2E_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func adminCreds() (string, string) {
	user := os.Getenv("E2E_ADMIN_USERNAME")
	if user == "" {
		user = "admin"
	}
	pass := os.Getenv("E2E_ADMIN_PASSWORD")
	if pass == "" {
		pass = "admin-password"
	}
	return user, pass
}

func TestE2E_CardTransferFlow(t *testing.T) {
	skipUnlessRunning(t)

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	username := "e2e_user_" + suffix
	password := "correct horse battery"

	// --- register and log in a cardholder ---
	code, body := doJSON(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	if code != http.StatusCreated {
		t.Fatalf("register: want 201, got %d (%s)", code, body)
	}

	var registered struct {
		ID string `json:"id"`
	}
	mustUnmarshal(t, body, &registered)

	userToken := login(t, username, password)

	adminUser, adminPass := adminCreds()
	adminToken := login(t, adminUser, adminPass)

	// --- admin issues two cards to the user ---
	from := createCard(t, adminToken, registered.ID, "1000.00", "1111")
	to := createCard(t, adminToken, registered.ID, "500.00", "2222")

	t.Run("transfer_moves_funds", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/transfers", userToken, map[string]string{
			"fromCardId": from,
			"toCardId":   to,
			"amount":     "100.50",
		})
		if code != http.StatusOK {
			t.Fatalf("transfer: want 200, got %d (%s)", code, body)
		}

		if got := getBalance(t, userToken, from); got != "899.50" {
			t.Fatalf("source balance: want 899.50, got %s", got)
		}
		if got := getBalance(t, userToken, to); got != "600.50" {
			t.Fatalf("dest balance: want 600.50, got %s", got)
		}
	})

	t.Run("insufficient_funds_conflict", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/transfers", userToken, map[string]string{
			"fromCardId": from,
			"toCardId":   to,
			"amount":     "999999.00",
		})
		if code != http.StatusConflict {
			t.Fatalf("overdraw: want 409, got %d (%s)", code, body)
		}
		if got := getBalance(t, userToken, from); got != "899.50" {
			t.Fatalf("balance changed on failed transfer: %s", got)
		}
	})

	t.Run("invalid_amount_precision", func(t *testing.T) {
		code, _ := doJSON(t, http.MethodPost, "/transfers", userToken, map[string]string{
			"fromCardId": from,
			"toCardId":   to,
			"amount":     "10.123",
		})
		if code != http.StatusBadRequest {
			t.Fatalf("fractional cent: want 400, got %d", code)
		}
	})

	t.Run("same_card_rejected", func(t *testing.T) {
		code, _ := doJSON(t, http.MethodPost, "/transfers", userToken, map[string]string{
			"fromCardId": from,
			"toCardId":   from,
			"amount":     "1.00",
		})
		if code != http.StatusBadRequest {
			t.Fatalf("same card: want 400, got %d", code)
		}
	})

	t.Run("foreign_card_looks_missing", func(t *testing.T) {
		otherName := "e2e_other_" + suffix

		code, body := doJSON(t, http.MethodPost, "/auth/register", "", map[string]string{
			"username": otherName,
			"password": password,
		})
		if code != http.StatusCreated {
			t.Fatalf("register other: want 201, got %d (%s)", code, body)
		}

		var other struct {
			ID string `json:"id"`
		}
		mustUnmarshal(t, body, &other)

		foreign := createCard(t, adminToken, other.ID, "50.00", "3333")

		code, _ = doJSON(t, http.MethodPost, "/transfers", userToken, map[string]string{
			"fromCardId": from,
			"toCardId":   foreign,
			"amount":     "1.00",
		})
		if code != http.StatusNotFound {
			t.Fatalf("foreign dest: want 404, got %d", code)
		}
	})

	t.Run("blocked_card_cannot_send", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, "/cards/"+from+"/block", userToken, nil)
		if code != http.StatusOK {
			t.Fatalf("block: want 200, got %d (%s)", code, body)
		}

		code, _ = doJSON(t, http.MethodPost, "/transfers", userToken, map[string]string{
			"fromCardId": from,
			"toCardId":   to,
			"amount":     "1.00",
		})
		if code != http.StatusConflict {
			t.Fatalf("blocked source: want 409, got %d", code)
		}

		// admin reactivates so later assertions see a clean state
		code, body = doJSON(t, http.MethodPatch, "/admin/cards/"+from+"/status", adminToken, map[string]string{
			"status": "ACTIVE",
		})
		if code != http.StatusOK {
			t.Fatalf("reactivate: want 200, got %d (%s)", code, body)
		}
	})

	t.Run("listing_masks_card_numbers", func(t *testing.T) {
		code, body := doJSON(t, http.MethodGet, "/cards", userToken, nil)
		if code != http.StatusOK {
			t.Fatalf("list cards: want 200, got %d (%s)", code, body)
		}

		var list []struct {
			MaskedNumber string `json:"maskedNumber"`
		}
		mustUnmarshal(t, body, &list)

		if len(list) != 2 {
			t.Fatalf("card count: want 2, got %d", len(list))
		}
		for _, c := range list {
			if c.MaskedNumber != "**** **** **** 1111" && c.MaskedNumber != "**** **** **** 2222" {
				t.Fatalf("unexpected masked number %q", c.MaskedNumber)
			}
		}
	})
}

func TestE2E_AccessControl(t *testing.T) {
	skipUnlessRunning(t)

	t.Run("missing_token_unauthorized", func(t *testing.T) {
		code, _ := doJSON(t, http.MethodGet, "/cards", "", nil)
		if code != http.StatusUnauthorized {
			t.Fatalf("no token: want 401, got %d", code)
		}
	})

	t.Run("wrong_password_unauthorized", func(t *testing.T) {
		suffix := fmt.Sprintf("%d", time.Now().UnixNano())
		username := "e2e_auth_" + suffix

		code, body := doJSON(t, http.MethodPost, "/auth/register", "", map[string]string{
			"username": username,
			"password": "proper password 1",
		})
		if code != http.StatusCreated {
			t.Fatalf("register: want 201, got %d (%s)", code, body)
		}

		code, _ = doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{
			"username": username,
			"password": "not the password",
		})
		if code != http.StatusUnauthorized {
			t.Fatalf("wrong password: want 401, got %d", code)
		}
	})

	t.Run("regular_user_forbidden_from_admin_api", func(t *testing.T) {
		suffix := fmt.Sprintf("%d", time.Now().UnixNano())
		username := "e2e_role_" + suffix
		password := "proper password 2"

		code, body := doJSON(t, http.MethodPost, "/auth/register", "", map[string]string{
			"username": username,
			"password": password,
		})
		if code != http.StatusCreated {
			t.Fatalf("register: want 201, got %d (%s)", code, body)
		}

		token := login(t, username, password)

		code, _ = doJSON(t, http.MethodGet, "/admin/cards", token, nil)
		if code != http.StatusForbidden {
			t.Fatalf("admin api as user: want 403, got %d", code)
		}
	})
}

/* -------------------- helpers -------------------- */

func skipUnlessRunning(t *testing.T) {
	t.Helper()

	resp, err := httpClient.Get(baseURL() + "/healthz")
	if err != nil {
		t.Skipf("api not running at %s: %v", baseURL(), err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Skipf("api not healthy at %s: status %d", baseURL(), resp.StatusCode)
	}
}

func doJSON(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL()+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func mustUnmarshal(t *testing.T, data []byte, dst any) {
	t.Helper()

	err := json.Unmarshal(data, dst)
	if err != nil {
		t.Fatalf("unmarshal %q: %v", string(data), err)
	}
}

func login(t *testing.T, username, password string) string {
	t.Helper()

	code, body := doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s: want 200, got %d (%s)", username, code, body)
	}

	var payload struct {
		Token string `json:"token"`
	}
	mustUnmarshal(t, body, &payload)

	if payload.Token == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return payload.Token
}

func createCard(t *testing.T, adminToken, ownerID, balance, last4 string) string {
	t.Helper()

	code, body := doJSON(t, http.MethodPost, "/admin/cards", adminToken, map[string]any{
		"ownerId":         ownerID,
		"encryptedNumber": "enc-" + last4,
		"last4":           last4,
		"holderName":      "E2E HOLDER",
		"expiryMonth":     12,
		"expiryYear":      2032,
		"currency":        "USD",
		"initialBalance":  balance,
	})
	if code != http.StatusCreated {
		t.Fatalf("create card: want 201, got %d (%s)", code, body)
	}

	var card struct {
		ID string `json:"id"`
	}
	mustUnmarshal(t, body, &card)

	return card.ID
}

func getBalance(t *testing.T, token, cardID string) string {
	t.Helper()

	code, body := doJSON(t, http.MethodGet, "/cards/"+cardID+"/balance", token, nil)
	if code != http.StatusOK {
		t.Fatalf("get balance: want 200, got %d (%s)", code, body)
	}

	var payload struct {
		Balance string `json:"balance"`
	}
	mustUnmarshal(t, body, &payload)

	return payload.Balance
}
