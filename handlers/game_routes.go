// handlers/game_routes.go
package handlers

import (
	"rithm-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, catalog *services.CatalogService) {
	app.Get("/api/games", catalog.GetGames)
}
