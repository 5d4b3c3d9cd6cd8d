package handlers

import (
	"ufc-picks/middleware"
	"ufc-picks/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEventRoutes(app *fiber.App, eventService *services.EventService, scoringService *services.ScoringService, auth fiber.Handler) {
	api := app.Group("/api")
	adminOnly := middleware.RequireAdmin()

	// Public reads
	api.Get("/events", eventService.ListEvents)
	api.Get("/events/:id", eventService.GetEvent)

	// Admin mutations. Gates are attached per route: a group on the /events
	// prefix would also intercept the pick routes nested under it.
	api.Post("/events", auth, adminOnly, eventService.CreateEvent)
	api.Put("/events/:id", auth, adminOnly, eventService.UpdateEvent)
	api.Delete("/events/:id", auth, adminOnly, eventService.DeleteEvent)
	api.Post("/events/:id/restore", auth, adminOnly, eventService.RestoreEvent)
	api.Post("/events/:id/results", auth, adminOnly, scoringService.PostResults)

	api.Delete("/admin/events/:id/purge", auth, adminOnly, eventService.PurgeEvent)
}
