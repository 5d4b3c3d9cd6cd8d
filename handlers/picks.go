package handlers

import (
	"ufc-picks/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPickRoutes(app *fiber.App, pickService *services.PickService, auth fiber.Handler) {
	api := app.Group("/api")

	// Auth is attached per route rather than on the /api prefix, which would
	// drag the public leaderboard and stats reads behind a token too.
	api.Post("/events/:id/picks", auth, pickService.SubmitPicks)
	api.Put("/events/:id/picks", auth, pickService.SubmitPicks) // resubmission, same replace semantics
	api.Get("/events/:id/picks", auth, pickService.EventPicks)
	api.Get("/events/:id/picks/me", auth, pickService.MyEventPicks)
	api.Get("/picks/me", auth, pickService.MyPicks)
}
