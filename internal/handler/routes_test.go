package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/middleware"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, env *testEnv, rl *middleware.RateLimiter) *echo.Echo {
	t.Helper()
	e := echo.New()
	RegisterRoutes(e, middleware.StaticWorkspace(testWorkspaceID), rl, env.handlers)
	t.Cleanup(rl.Stop)
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_AccountLifecycle(t *testing.T) {
	env := newTestEnv(t)
	e := newTestServer(t, env, middleware.NewRateLimiter())

	rec := serve(e, http.MethodPost, "/api/v1/accounts", `{"name": "Checking", "accountType": "checking", "initialBalance": "100"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	account := decode[AccountResponse](t, rec)

	rec = serve(e, http.MethodPost, "/api/v1/categories", `{"name": "Food", "type": "expense"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	category := decode[CategoryResponse](t, rec)

	rec = serve(e, http.MethodPost, "/api/v1/transactions",
		`{"accountId": `+itoa(account.ID)+`, "categoryId": `+itoa(category.ID)+`, "amount": "40", "type": "expense", "date": "2026-03-14"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/v1/accounts/"+itoa(account.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60.0000", decode[AccountResponse](t, rec).Balance)

	rec = serve(e, http.MethodPost, "/api/v1/accounts/"+itoa(account.ID)+"/reconcile", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[ReconcileResponse](t, rec).InSync)

	rec = serve(e, http.MethodGet, "/api/v1/transactions?accountId="+itoa(account.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[PaginatedTransactionsResponse](t, rec).Data, 1)
}

func TestRoutes_HealthIsPublic(t *testing.T) {
	env := newTestEnv(t)
	e := newTestServer(t, env, middleware.NewRateLimiter())

	rec := serve(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_RateLimitsMutations(t *testing.T) {
	env := newTestEnv(t)
	e := newTestServer(t, env, middleware.NewRateLimiterWithConfig(60, 2))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodPost, "/api/v1/categories", `{"name": "Cat`+itoa(int32(i))+`", "type": "expense"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := serve(e, http.MethodPost, "/api/v1/categories", `{"name": "Extra", "type": "expense"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited
	rec = serve(e, http.MethodGet, "/api/v1/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_WebSocketReceivesLedgerEvents(t *testing.T) {
	env := newTestEnv(t)
	account := env.fx.Account(testWorkspaceID, "Checking", "0")
	salary := env.fx.Category(testWorkspaceID, "Salary", domain.TransactionTypeIncome)
	e := newTestServer(t, env, middleware.NewRateLimiter())

	server := httptest.NewServer(e)
	defer server.Close()
	defer env.hub.CloseAll()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.ClientCount(testWorkspaceID) == 1 },
		time.Second, 10*time.Millisecond)

	rec := serve(e, http.MethodPost, "/api/v1/transactions",
		`{"accountId": `+itoa(account.ID)+`, "categoryId": `+itoa(salary.ID)+`, "amount": "10", "type": "income"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var event struct {
			Type   string `json:"type"`
			Entity string `json:"entity"`
		}
		require.NoError(t, json.Unmarshal(data, &event))
		if event.Type == "transaction.created" {
			assert.Equal(t, "transaction", event.Entity)
			return
		}
	}
}

func TestRoutes_WebSocketEntitiesFilter(t *testing.T) {
	env := newTestEnv(t)
	account := env.fx.Account(testWorkspaceID, "Checking", "0")
	salary := env.fx.Category(testWorkspaceID, "Salary", domain.TransactionTypeIncome)
	e := newTestServer(t, env, middleware.NewRateLimiter())

	server := httptest.NewServer(e)
	defer server.Close()
	defer env.hub.CloseAll()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws?entities=account", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.ClientCount(testWorkspaceID) == 1 },
		time.Second, 10*time.Millisecond)

	rec := serve(e, http.MethodPost, "/api/v1/transactions",
		`{"accountId": `+itoa(account.ID)+`, "categoryId": `+itoa(salary.ID)+`, "amount": "10", "type": "income"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "account.balance_changed", event.Type)
}
