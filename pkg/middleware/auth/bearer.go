package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/repair_shop/pkg/logging"
	"github.com/Skotchmaster/repair_shop/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"

	RoleCustomer = "Customer"
	RoleAdmin    = "Main Admin"
)

type AccessParser interface {
	ParseAccess(token string) (*tokens.AccessClaims, error)
}

type BearerAuth struct {
	Tokens AccessParser
}

func NewBearerAuth(p AccessParser) *BearerAuth {
	return &BearerAuth{Tokens: p}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("mw", "bearer_auth")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_error", "status", 401, "reason", "missing bearer token")
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Tokens.ParseAccess(raw)
		if err != nil || claims == nil {
			l.Warn("auth_error", "status", 401, "reason", "invalid access token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		if claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxRole, claims.Role)
		return next(c)
	}
}

// RequireAdmin is RequireAuth followed by a Main Admin role check.
func (m *BearerAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(RequireRole([]string{RoleAdmin})(next))
}

func RequireRole(required []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(required, role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserID).(string)
	return id
}

func bearerToken(header string) (string, bool) {
	scheme, tok, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
