package middleware

import (
	"context"
	"strings"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/labstack/echo/v4"
)

// principalKey is the echo context key for the authenticated user.
const principalKey = "principal"

const sessionCookieName = "agencydesk_session"

// TokenLookup resolves a session token to a user.
type TokenLookup interface {
	GetUserBySessionToken(ctx context.Context, token string) (repository.User, error)
}

// WithUser resolves the bearer token or session cookie to a principal and
// stores it on the request context. It never rejects: routes that require
// authentication layer RequireRole on top.
func WithUser(lookup TokenLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				if cookie, err := c.Cookie(sessionCookieName); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				return next(c)
			}

			user, err := lookup.GetUserBySessionToken(c.Request().Context(), token)
			if err != nil {
				// Expired or unknown token; the request proceeds anonymous.
				return next(c)
			}

			c.Set(principalKey, user)
			return next(c)
		}
	}
}

// RequireRole rejects requests whose principal is missing or whose role is
// not in the allowed set.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := Principal(c)
			if !ok {
				return domain.Unauthorized("auth.require_role", "authentication required")
			}
			if !allowed[user.Role] {
				return domain.Forbidden("auth.require_role", "insufficient permissions")
			}
			return next(c)
		}
	}
}

// SetPrincipal attaches a user to the request context directly, bypassing
// token lookup.
func SetPrincipal(c echo.Context, user repository.User) {
	c.Set(principalKey, user)
}

// Principal returns the authenticated user, if any.
func Principal(c echo.Context) (repository.User, bool) {
	user, ok := c.Get(principalKey).(repository.User)
	return user, ok
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
