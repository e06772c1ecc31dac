// handlers/account_routes.go
package handlers

import (
	"rithm-backend/middleware"
	"rithm-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAccountRoutes(app *fiber.App, auth *services.AuthService, stats *services.StatsService) {
	api := app.Group("/accounts/api")

	api.Post("/register", auth.Register)
	api.Post("/login", auth.Login)
	api.Post("/verify", auth.VerifyEmail)

	api.Get("/me", middleware.RequireUser(), auth.Me)
	api.Post("/verify/resend", middleware.RequireUser(), auth.ResendVerification)

	api.Get("/stats/:game", middleware.OptionalUser(), stats.GetStats)
	api.Post("/stats/:game/update", middleware.RequireUser(), stats.UpdateStats)
}
