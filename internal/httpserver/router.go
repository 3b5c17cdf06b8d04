package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minukang/auth-backend/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	UserHandler *UserHTTP
	Guard       *middleware.BearerAuth
	LoginLimit  echo.MiddlewareFunc
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/v1")

	api.POST("/users", d.UserHandler.Create)
	if d.LoginLimit != nil {
		api.POST("/auth/login", d.AuthHandler.Login, d.LoginLimit)
	} else {
		api.POST("/auth/login", d.AuthHandler.Login)
	}
	api.POST("/auth/refresh", d.AuthHandler.Refresh)

	private := api.Group("", d.Guard.RequireAuth)
	private.POST("/auth/logout", d.AuthHandler.Logout)
	private.GET("/users/me", d.UserHandler.Me)
	private.GET("/users/:id", d.UserHandler.Get)
	private.POST("/users/:id/social-accounts", d.UserHandler.AddSocialAccount)
	private.DELETE("/users/:id/social-accounts/:provider", d.UserHandler.RemoveSocialAccount)

	admin := private.Group("", d.Guard.RequireAdmin)
	admin.GET("/users", d.UserHandler.ListByState)
	admin.GET("/users/search", d.UserHandler.Search)
	admin.PATCH("/users/:id/state", d.UserHandler.ChangeState)
	admin.DELETE("/users/:id", d.UserHandler.Delete)
}
