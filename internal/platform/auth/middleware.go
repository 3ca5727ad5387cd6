package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

const (
	MsgNoToken     = "Unauthorized - No token provided"
	msgInvalid     = "Unauthorized - Invalid token"
	msgWrongRole   = "Unauthorized - You don't have access to this module"
	msgInvalidUser = "Unauthorized - Invalid user"
)

// Identity is the authenticated caller. It is resolved once per request and
// never mutated afterwards.
type Identity struct {
	ID   int64
	Role Role
}

// AccountChecker confirms that the account behind a token still exists.
type AccountChecker interface {
	AccountExists(ctx context.Context, role Role, id int64) (bool, error)
}

// RequireRole rejects requests without a valid bearer token for role and
// stores the caller Identity on the request context.
func RequireRole(role Role, tokens *TokenIssuer, accounts AccountChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, MsgNoToken)
			}

			scheme, tokenStr, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenStr) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, MsgNoToken)
			}

			id, err := tokens.Parse(strings.TrimSpace(tokenStr))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, msgInvalid)
			}
			if id.Role != role {
				return echo.NewHTTPError(http.StatusUnauthorized, msgWrongRole)
			}

			if accounts != nil {
				exists, err := accounts.AccountExists(c.Request().Context(), id.Role, id.ID)
				if err != nil {
					return err
				}
				if !exists {
					return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidUser)
				}
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
