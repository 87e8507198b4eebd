package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// problemDetails is the RFC 7807 body shared with the handler package
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const (
	errorTypeUnauthorized = "https://fortuna.app/errors/unauthorized"
	errorTypeRateLimit    = "https://fortuna.app/errors/rate-limit"

	authRealm = "fortuna-ledger"
)

// authFailure is a reason for rejecting a request. code is the RFC 6750 error
// reported in WWW-Authenticate; it stays empty when no credentials were sent.
type authFailure struct {
	detail string
	code   string
}

var (
	failMissingToken    = authFailure{detail: "missing authorization header"}
	failMalformedHeader = authFailure{detail: "invalid authorization header format", code: "invalid_request"}
	failInvalidToken    = authFailure{detail: "invalid token", code: "invalid_token"}
	failInvalidClaims   = authFailure{detail: "invalid claims", code: "invalid_token"}
	failNoSubject       = authFailure{detail: "token has no subject", code: "invalid_token"}
	failNoWorkspace     = authFailure{detail: "workspace not found"}
)

func (f authFailure) challenge() string {
	if f.code == "" {
		return `Bearer realm="` + authRealm + `"`
	}
	return `Bearer realm="` + authRealm + `", error="` + f.code + `"`
}

func unauthorizedError(c echo.Context, f authFailure) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, f.challenge())
	return writeProblem(c, http.StatusUnauthorized, errorTypeUnauthorized, "Unauthorized", f.detail)
}

func rateLimitedError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusTooManyRequests, errorTypeRateLimit, "Rate Limit Exceeded", detail)
}

func writeProblem(c echo.Context, status int, errType, title, detail string) error {
	return c.JSON(status, problemDetails{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}
