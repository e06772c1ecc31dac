// handlers/admin_routes.go
package handlers

import (
	"rithm-backend/middleware"
	"rithm-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, admin *services.AdminService) {
	group := app.Group("/admin", middleware.AdminAuthMiddleware())

	group.Get("/scores", admin.ListScores)
	group.Get("/weekly-scores", admin.ListWeeklyScores)
}
