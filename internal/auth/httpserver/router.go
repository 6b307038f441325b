package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/repair_shop/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Bearer      *middleware.BearerAuth
	RateLimit   echo.MiddlewareFunc
	// CSRF guards the cookie-authenticated routes when set.
	CSRF echo.MiddlewareFunc
}

func Register(e *echo.Echo, d *Deps) {
	var limited []echo.MiddlewareFunc
	if d.RateLimit != nil {
		limited = append(limited, d.RateLimit)
	}

	auth := e.Group("/auth")
	if d.CSRF != nil {
		auth.Use(d.CSRF)
	}
	auth.POST("/register", d.AuthHandler.Register, limited...)
	auth.POST("/login", d.AuthHandler.Login, limited...)
	auth.POST("/refresh-token", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.LogOut)

	e.GET("/me", d.AuthHandler.Me, d.Bearer.RequireAuth)
}
