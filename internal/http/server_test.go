package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// newTestServer wires a server against a real repository in a temp
// directory, exactly as main does minus the listener and AMQP.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	users := services.NewUserService(repo, bcrypt.MinCost)
	transactions := services.NewTransactionService(repo, nil)
	budgets := services.NewBudgetService(repo)

	srv := NewServer(":0", users, transactions, budgets, repo)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

// assertAmount compares a serialized amount field numerically, since the
// string form is not canonical ("20.00" serializes as "20").
func assertAmount(t *testing.T, want string, got any) {
	t.Helper()
	raw, ok := got.(string)
	require.True(t, ok, "amount field %v is not a string", got)
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(raw)),
		"amount = %s, want %s", raw, want)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerUser(t *testing.T, ts *httptest.Server) int64 {
	t.Helper()
	resp := postJSON(t, ts, "/api/auth/register", map[string]string{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	return int64(body["userId"].(float64))
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	userID := registerUser(t, ts)
	assert.Positive(t, userID)

	resp := postJSON(t, ts, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "Alice", body["name"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, float64(userID), body["userId"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts)

	resp := postJSON(t, ts, "/api/auth/register", map[string]string{
		"email":    "alice@example.com",
		"name":     "Other Alice",
		"password": "different",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "already exists")
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts)

	for name, creds := range map[string]map[string]string{
		"unknown email":  {"email": "nobody@example.com", "password": "s3cret"},
		"wrong password": {"email": "alice@example.com", "password": "wrong"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := postJSON(t, ts, "/api/auth/login", creds)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Equal(t, "Invalid credentials", body["error"])
		})
	}
}

func TestCreateTransactionAcceptsStringAndNumberFields(t *testing.T) {
	ts := newTestServer(t)
	userID := registerUser(t, ts)

	// userId as JSON string, amount as JSON number.
	resp := postJSON(t, ts, "/api/transactions", map[string]any{
		"userId":      fmt.Sprintf("%d", userID),
		"description": "Groceries",
		"amount":      42.50,
		"type":        "EXPENSE",
		"category":    "Food",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Groceries", body["description"])
	assertAmount(t, "42.50", body["amount"])
	assert.NotEmpty(t, body["transactionDate"])

	// userId as number, amount as string.
	resp = postJSON(t, ts, "/api/transactions", map[string]any{
		"userId":      userID,
		"description": "Salary",
		"amount":      "1000.00",
		"type":        "income",
		"category":    "Work",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "INCOME", body["type"])
}

func TestCreateTransactionFieldErrors(t *testing.T) {
	ts := newTestServer(t)
	userID := registerUser(t, ts)

	cases := []struct {
		name    string
		payload map[string]any
		wantErr string
	}{
		{
			name:    "missing userId",
			payload: map[string]any{"description": "x", "amount": 1, "type": "EXPENSE", "category": "c"},
			wantErr: "missing required field: userId",
		},
		{
			name:    "non-numeric amount",
			payload: map[string]any{"userId": userID, "description": "x", "amount": "abc", "type": "EXPENSE", "category": "c"},
			wantErr: `invalid value for amount: "abc"`,
		},
		{
			name:    "bad type",
			payload: map[string]any{"userId": userID, "description": "x", "amount": 1, "type": "TRANSFER", "category": "c"},
			wantErr: "invalid transaction type",
		},
		{
			name:    "unknown user",
			payload: map[string]any{"userId": 9999, "description": "x", "amount": 1, "type": "EXPENSE", "category": "c"},
			wantErr: "user not found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts, "/api/transactions", tc.payload)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Contains(t, body["error"], tc.wantErr)
		})
	}
}

func TestListTransactionsEmptyIsArray(t *testing.T) {
	ts := newTestServer(t)
	userID := registerUser(t, ts)

	resp, err := http.Get(fmt.Sprintf("%s/api/transactions/user/%d", ts.URL, userID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, "[]", string(raw))
}

func TestListTransactionsDateRange(t *testing.T) {
	ts := newTestServer(t)
	userID := registerUser(t, ts)

	resp := postJSON(t, ts, "/api/transactions", map[string]any{
		"userId": userID, "description": "Coffee", "amount": "3.20",
		"type": "EXPENSE", "category": "Food",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	url := fmt.Sprintf("%s/api/transactions/user/%d?start=2000-01-01T00:00:00Z&end=2099-01-01T00:00:00Z", ts.URL, userID)
	resp2, err := http.Get(url)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Coffee", list[0]["description"])

	resp3, err := http.Get(fmt.Sprintf("%s/api/transactions/user/%d?start=not-a-date&end=2099-01-01T00:00:00Z", ts.URL, userID))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp3.StatusCode)
	body := decodeBody(t, resp3)
	assert.Contains(t, body["error"], "invalid value for start")
}

func TestExpensesByCategory(t *testing.T) {
	ts := newTestServer(t)
	userID := registerUser(t, ts)

	for _, p := range []map[string]any{
		{"userId": userID, "description": "Lunch", "amount": "12.50", "type": "EXPENSE", "category": "Food"},
		{"userId": userID, "description": "Dinner", "amount": "7.50", "type": "EXPENSE", "category": "Food"},
		{"userId": userID, "description": "Bus", "amount": "2.00", "type": "EXPENSE", "category": "Transport"},
		{"userId": userID, "description": "Salary", "amount": "500.00", "type": "INCOME", "category": "Work"},
	} {
		resp := postJSON(t, ts, "/api/transactions", p)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/transactions/user/%d/expenses-by-category", ts.URL, userID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assertAmount(t, "20.00", body["Food"])
	assertAmount(t, "2.00", body["Transport"])
	assert.NotContains(t, body, "Work")
}

func TestDeleteTransactionIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/transactions/12345", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Transaction deleted successfully", body["message"])
}

func TestBudgetUpsertAndList(t *testing.T) {
	ts := newTestServer(t)
	userID := registerUser(t, ts)

	resp := postJSON(t, ts, "/api/budgets", map[string]any{
		"userId": userID, "category": "Food", "amount": "300.00", "month": 6, "year": 2026,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeBody(t, resp)
	assertAmount(t, "300.00", first["amount"])

	// Same natural key with a new amount updates in place.
	resp = postJSON(t, ts, "/api/budgets", map[string]any{
		"userId": userID, "category": "Food", "amount": "250.00", "month": "6", "year": "2026",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeBody(t, resp)
	assert.Equal(t, first["id"], second["id"])
	assertAmount(t, "250.00", second["amount"])

	listResp, err := http.Get(fmt.Sprintf("%s/api/budgets/user/%d?month=6&year=2026", ts.URL, userID))
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Food", list[0]["category"])
}

func TestListBudgetsRequiresMonthAndYear(t *testing.T) {
	ts := newTestServer(t)
	userID := registerUser(t, ts)

	resp, err := http.Get(fmt.Sprintf("%s/api/budgets/user/%d?year=2026", ts.URL, userID))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "missing required parameter: month", body["error"])
}

func TestBudgetValidation(t *testing.T) {
	ts := newTestServer(t)
	userID := registerUser(t, ts)

	resp := postJSON(t, ts, "/api/budgets", map[string]any{
		"userId": userID, "category": "Food", "amount": "300.00", "month": 13, "year": 2026,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "month")
}

func TestDeleteBudgetIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/budgets/777", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Budget deleted successfully", body["message"])
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/transactions", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "invalid request body", body["error"])
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/transactions", nil)
	require.NoError(t, err)
	preflight, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	preflight.Body.Close()
	assert.Equal(t, http.StatusNoContent, preflight.StatusCode)
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		body := decodeBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, body["status"], path)
	}
}
