package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-client/internal/core/domain"
)

// Context keys set by Auth.
const (
	KeyAccountID = "account_id"
	KeyRole      = "role"
)

// TokenAuthenticator resolves a bearer token to a live, unsuspended account.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
}

// Auth validates the bearer token on every request and injects the account ID
// and current role into the context. Suspension errors are passed on to the
// error handler unchanged so the client sees the suspension code.
func Auth(authn TokenAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			account, err := authn.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				return err
			}

			c.Set(KeyAccountID, account.ID)
			c.Set(KeyRole, string(account.Role))

			return next(c)
		}
	}
}

// OptionalAuth behaves like Auth when an Authorization header is present and
// lets anonymous requests through untouched otherwise.
func OptionalAuth(authn TokenAuthenticator) echo.MiddlewareFunc {
	required := Auth(authn)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		authed := required(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return authed(c)
		}
	}
}
