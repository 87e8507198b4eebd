package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
)

type fakeValidator struct {
	tokens map[string]*validator.ValidatedClaims
	seen   []string
}

func (f *fakeValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	f.seen = append(f.seen, token)
	claims, ok := f.tokens[token]
	if !ok {
		return nil, errors.New("bad signature")
	}
	return claims, nil
}

type fakeWorkspaceProvider struct {
	workspaces map[string]int32
	lastName   string
}

func (f *fakeWorkspaceProvider) GetWorkspaceByAuth0ID(ctx context.Context, auth0ID, displayName string) (int32, error) {
	f.lastName = displayName
	id, ok := f.workspaces[auth0ID]
	if !ok {
		return 0, errors.New("no workspace")
	}
	return id, nil
}

func newTestAuth() (*AuthMiddleware, *fakeValidator, *fakeWorkspaceProvider) {
	v := &fakeValidator{tokens: map[string]*validator.ValidatedClaims{
		"good": {
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|alice"},
			CustomClaims:     &CustomClaims{Name: "Alice"},
		},
		"orphan": {
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|nobody"},
		},
		"anonymous": {},
	}}
	p := &fakeWorkspaceProvider{workspaces: map[string]int32{"auth0|alice": 7}}
	return NewAuthMiddlewareWithValidator(v, p), v, p
}

func runAuth(t *testing.T, m *AuthMiddleware, req *http.Request) (*httptest.ResponseRecorder, int32) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var workspaceID int32
	handler := m.Authenticate()(func(c echo.Context) error {
		workspaceID = GetWorkspaceID(c)
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, workspaceID
}

func TestAuthenticate_BearerToken(t *testing.T) {
	m, _, provider := newTestAuth()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec, workspaceID := runAuth(t, m, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if workspaceID != 7 {
		t.Errorf("Expected workspace 7, got %d", workspaceID)
	}
	if provider.lastName != "Alice" {
		t.Errorf("Expected display name Alice, got %q", provider.lastName)
	}
}

func TestAuthenticate_QueryTokenForWebsocket(t *testing.T) {
	m, v, _ := newTestAuth()

	req := httptest.NewRequest(http.MethodGet, "/ws?access_token=good", nil)
	rec, workspaceID := runAuth(t, m, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if workspaceID != 7 {
		t.Errorf("Expected workspace 7, got %d", workspaceID)
	}
	if len(v.seen) != 1 || v.seen[0] != "good" {
		t.Errorf("Expected validator to see token 'good', got %v", v.seen)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		detail    string
		challenge string
	}{
		{"missing header", "", "missing authorization header", `Bearer realm="fortuna-ledger"`},
		{"no bearer prefix", "good", "invalid authorization header format", `Bearer realm="fortuna-ledger", error="invalid_request"`},
		{"wrong scheme", "Basic good", "invalid authorization header format", `Bearer realm="fortuna-ledger", error="invalid_request"`},
		{"empty bearer", "Bearer ", "invalid authorization header format", `Bearer realm="fortuna-ledger", error="invalid_request"`},
		{"invalid token", "Bearer forged", "invalid token", `Bearer realm="fortuna-ledger", error="invalid_token"`},
		{"no subject", "Bearer anonymous", "token has no subject", `Bearer realm="fortuna-ledger", error="invalid_token"`},
		{"workspace lookup fails", "Bearer orphan", "workspace not found", `Bearer realm="fortuna-ledger"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestAuth()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec, _ := runAuth(t, m, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("Expected status 401, got %d", rec.Code)
			}

			var body problemDetails
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body.Type != errorTypeUnauthorized {
				t.Errorf("Expected type %q, got %q", errorTypeUnauthorized, body.Type)
			}
			if body.Detail != tt.detail {
				t.Errorf("Expected detail %q, got %q", tt.detail, body.Detail)
			}
			if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != tt.challenge {
				t.Errorf("Expected challenge %q, got %q", tt.challenge, got)
			}
			if body.Instance != "/api/v1/accounts" {
				t.Errorf("Expected instance path, got %q", body.Instance)
			}
		})
	}
}

func TestStaticWorkspace(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got int32
	handler := StaticWorkspace(3)(func(c echo.Context) error {
		got = GetWorkspaceID(c)
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != 3 {
		t.Errorf("Expected workspace 3, got %d", got)
	}
}

func TestContextGetters(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if GetAuth0ID(c) != "" || GetClaims(c) != nil || GetWorkspaceID(c) != 0 {
		t.Fatal("Expected zero values on an unauthenticated context")
	}

	claims := &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|test"}}
	ctx := context.WithValue(req.Context(), ClaimsKey, claims)
	ctx = context.WithValue(ctx, Auth0IDKey, "auth0|test")
	c.SetRequest(req.WithContext(ctx))

	if GetAuth0ID(c) != "auth0|test" {
		t.Errorf("Expected auth0 id, got %q", GetAuth0ID(c))
	}
	if GetClaims(c) != claims {
		t.Error("Expected stored claims")
	}
}
