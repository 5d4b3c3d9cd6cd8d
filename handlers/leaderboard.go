package handlers

import (
	"ufc-picks/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService) {
	api := app.Group("/api")

	api.Get("/leaderboard", leaderboardService.Global)
	api.Get("/events/:id/leaderboard", leaderboardService.EventLeaderboard)
	api.Get("/users/:id/rank", leaderboardService.UserRank)
	api.Get("/stats", leaderboardService.PlatformStats)
}
