// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/handler"
)

// RegisterRoutes registers routes that need no authentication or handler
// state. Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the account routes. Credential endpoints live under
// /v1/auth behind the rate limiter; everything touching an established
// session goes through the auth gate.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, gate, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.Use(limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotation endpoint: cookie or refresh_token body field. Not gated —
	// the refresh token itself is the credential here.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, gate)

	users := e.Group("/v1/users")
	users.Use(gate)
	users.GET("/me", a.Me)
	users.PATCH("/me", a.UpdateAccount)
	users.POST("/me/change-password", a.ChangePassword)
	users.PATCH("/me/avatar", a.UpdateAvatar)
	users.PATCH("/me/cover-image", a.UpdateCoverImage)
}
