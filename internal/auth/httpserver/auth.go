package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	"github.com/Skotchmaster/repair_shop/internal/auth/service"
	"github.com/Skotchmaster/repair_shop/internal/auth/transport"
	jwthelp "github.com/Skotchmaster/repair_shop/pkg/jwt"
	"github.com/Skotchmaster/repair_shop/pkg/logging"
	middleware "github.com/Skotchmaster/repair_shop/pkg/middleware/auth"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrConflict):
			l.Warn("register_error", "status", 409, "reason", "email already exists")
			return echo.NewHTTPError(http.StatusConflict, "Email already exists")
		case errors.Is(err, apperr.ErrValidation):
			l.Warn("register_error", "status", 400, "reason", err.Error())
			return apperr.BadRequest(err)
		default:
			l.Error("register_error", "status", 500, "reason", "cannot create account", "error", err)
			return apperr.Internal(err)
		}
	}

	l.Info("register_success", "account_id", res.Account.ID)
	return respondWithTokens(c, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		l.Error("login_error", "status", 500, "error", err)
		return apperr.Internal(err)
	}

	l.Info("login_success", "account_id", res.Account.ID)
	return respondWithTokens(c, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var raw string
	if cookie, err := c.Cookie(jwthelp.RefreshCookieName); err == nil {
		raw = cookie.Value
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		code, msg := refreshFailure(err)
		if code >= 500 {
			l.Error("refresh_error", "status", code, "error", err)
			return echo.NewHTTPError(code, msg).SetInternal(err)
		}
		l.Warn("refresh_error", "status", code, "reason", msg, "error", err)
		return echo.NewHTTPError(code, msg)
	}

	l.Info("refresh_success", "account_id", res.Account.ID)
	return respondWithTokens(c, res)
}

func refreshFailure(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRefreshMissing):
		return http.StatusUnauthorized, "Refresh token not found"
	case errors.Is(err, service.ErrRefreshExpired):
		return http.StatusUnauthorized, "Refresh token expired"
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "Invalid refresh token"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, "Could not refresh token"
	}
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookieName, "/"))

	if cookie, err := c.Cookie(jwthelp.RefreshCookieName); err == nil {
		if err := h.Svc.LogOut(ctx, cookie.Value); err != nil {
			l.Error("logout_error", "status", 500, "reason", "cannot revoke refresh token", "error", err)
			return apperr.Internal(err)
		}
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_me")

	acc, err := h.Svc.Me(ctx, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			l.Warn("me_error", "status", 404, "reason", "account gone")
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		l.Error("me_error", "status", 500, "error", err)
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, acc)
}

// respondWithTokens returns the access token in the body; the refresh token
// only ever travels in the cookie.
func respondWithTokens(c echo.Context, res *service.AuthResult) error {
	c.SetCookie(jwthelp.RefreshCookie(res.Tokens.RefreshToken, res.RefreshTTL))
	return c.JSON(http.StatusOK, transport.AuthResponse{
		User:        res.Account,
		AccessToken: res.Tokens.AccessToken,
	})
}
