package handlers

import (
	"ufc-picks/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService, auth fiber.Handler) {
	api := app.Group("/api")

	api.Post("/auth/register", authService.Register)
	api.Post("/auth/login", authService.Login)

	api.Get("/users/me", auth, authService.Me)
	api.Put("/users/me", auth, authService.UpdateMe)
}
