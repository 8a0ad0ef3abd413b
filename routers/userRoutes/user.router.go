package userRoutes

import (
	"github.com/gofiber/fiber/v2"

	userController "pharmacoach/controllers/userControllers"
	"pharmacoach/middleware"
	"pharmacoach/validators/userValidator"
)

func SetupUserRoutes(api fiber.Router, sessions *middleware.SessionManager, ctl *userController.Controller) {
	userGroup := api.Group("/users", sessions.JWTMiddleware, middleware.AdminOnly)

	userGroup.Get("/", userValidator.ListUsers(), ctl.ListUsers)
	userGroup.Put("/:id", userValidator.UpdateUser(), ctl.UpdateUser)
}
