package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	api := app.Group("/api/v1")
	api.Post("/login", h.Login)
	api.Post("/token/refresh", h.Refresh)
	api.Post("/logout", h.Logout)

	// Admin-only endpoints
	admin := api.Group("/admin", h.RequireRole(domain.RoleAdmin))
	admin.Delete("/user/:id/sessions", h.ForceLogout)
}
