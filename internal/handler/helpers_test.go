package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/repository/memory"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/service"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/testutil"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const testWorkspaceID = int32(1)

// setupAuthContextWithWorkspace puts the values Authenticate would set into c
func setupAuthContextWithWorkspace(c echo.Context, auth0ID string, name string, workspaceID int32) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
		CustomClaims:     &middleware.CustomClaims{Name: name},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.Auth0IDKey, auth0ID)
	if workspaceID > 0 {
		ctx = context.WithValue(ctx, middleware.WorkspaceIDKey, workspaceID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

type testEnv struct {
	store    *memory.Store
	fx       *testutil.Fixtures
	hub      *websocket.Hub
	handlers Handlers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	logger := zerolog.Nop()
	hub := websocket.NewHub(logger)

	ledger := service.NewLedgerService(store, logger, service.LedgerConfig{MaxConflictRetries: 2, RetryBackoff: time.Millisecond})
	ledger.SetEventPublisher(hub)
	scheduler := service.NewRecurringScheduler(store, ledger, logger)
	worker := service.NewSchedulerWorker(scheduler, logger, service.DefaultSchedulerWorkerConfig())

	return &testEnv{
		store: store,
		fx:    testutil.NewFixtures(t, store),
		hub:   hub,
		handlers: Handlers{
			Health:      NewHealthHandler(nil),
			Workspace:   NewWorkspaceHandler(service.NewWorkspaceService(store)),
			Account:     NewAccountHandler(service.NewAccountService(store, logger)),
			Transaction: NewTransactionHandler(ledger),
			Category:    NewCategoryHandler(service.NewCategoryService(store)),
			Budget:      NewBudgetHandler(service.NewBudgetService(store)),
			Recurring:   NewRecurringHandler(service.NewRecurringService(store), worker),
			Dashboard:   NewDashboardHandler(service.NewDashboardService(store)),
			WebSocket:   NewWebSocketHandler(hub, []string{"http://localhost:3000"}),
		},
	}
}

// newContext builds an authenticated echo context for a direct handler call
func newContext(method, target string, body io.Reader, workspaceID int32) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "Test User", workspaceID)
	return c, rec
}

func withParams(c echo.Context, kv ...string) {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to unmarshal response %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func assertFieldError(t *testing.T, rec *httptest.ResponseRecorder, field string) {
	t.Helper()
	assertStatus(t, rec, http.StatusBadRequest)
	problem := decode[ProblemDetails](t, rec)
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected validation problem, got %q", problem.Type)
	}
	for _, e := range problem.Errors {
		if e.Field == field {
			return
		}
	}
	t.Errorf("Expected error on field %q, got %+v", field, problem.Errors)
}

func itoa(v int32) string {
	return strconv.Itoa(int(v))
}
