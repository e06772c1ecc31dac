// handlers/leaderboard_routes.go
package handlers

import (
	"rithm-backend/middleware"
	"rithm-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, svc *services.LeaderboardService) {
	board := app.Group("/leaderboard")

	board.Get("/", middleware.OptionalUser(), svc.GetLeaderboardPage)

	api := board.Group("/api")
	api.Get("/rankings", svc.GetRankings)
	api.Post("/submit", middleware.RequireUser(), svc.SubmitScore)
}
