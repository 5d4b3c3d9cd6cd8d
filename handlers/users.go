package handlers

import (
	"ufc-picks/middleware"
	"ufc-picks/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, userService *services.UserService, scoringService *services.ScoringService, auth fiber.Handler) {
	admin := app.Group("/api/admin", auth, middleware.RequireAdmin())

	admin.Get("/users", userService.ListUsers)
	admin.Patch("/users/:id/role", userService.UpdateRole)
	admin.Patch("/users/:id/status", userService.UpdateStatus)
	admin.Delete("/users/:id", userService.DeleteUser)

	// Administrative reconciliation of all cached aggregates
	admin.Post("/stats/recompute", scoringService.RecomputeAll)
}
