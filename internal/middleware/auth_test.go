package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	users map[string]repository.User
}

func (f *fakeLookup) GetUserBySessionToken(ctx context.Context, token string) (repository.User, error) {
	user, ok := f.users[token]
	if !ok {
		return repository.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func newAuthContext(token string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/x", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func passthrough(c echo.Context) error { return nil }

func TestWithUser_ResolvesBearerToken(t *testing.T) {
	lookup := &fakeLookup{users: map[string]repository.User{
		"tok_1": {Email: "admin@example.com", Role: domain.RoleAdmin},
	}}

	c := newAuthContext("tok_1")
	require.NoError(t, WithUser(lookup)(passthrough)(c))

	user, ok := Principal(c)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", user.Email)
}

func TestWithUser_UnknownTokenStaysAnonymous(t *testing.T) {
	lookup := &fakeLookup{users: map[string]repository.User{}}

	c := newAuthContext("tok_expired")
	require.NoError(t, WithUser(lookup)(passthrough)(c))

	_, ok := Principal(c)
	assert.False(t, ok)
}

func TestRequireRole_RejectsAnonymous(t *testing.T) {
	c := newAuthContext("")

	err := RequireRole(domain.RoleAdmin)(passthrough)(c)
	require.Error(t, err)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestRequireRole_RejectsWrongRole(t *testing.T) {
	c := newAuthContext("")
	SetPrincipal(c, repository.User{Role: domain.RoleClient})

	err := RequireRole(domain.RoleAdmin, domain.RoleStaff)(passthrough)(c)
	require.Error(t, err)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}

func TestRequireRole_AllowsListedRole(t *testing.T) {
	c := newAuthContext("")
	SetPrincipal(c, repository.User{Role: domain.RoleStaff})

	assert.NoError(t, RequireRole(domain.RoleAdmin, domain.RoleStaff)(passthrough)(c))
}
