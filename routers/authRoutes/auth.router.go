package authRoutes

import (
	"github.com/gofiber/fiber/v2"

	authController "pharmacoach/controllers/auth"
	"pharmacoach/middleware"
	authValidator "pharmacoach/validators/auth"
)

func SetupAuthRoutes(api fiber.Router, sessions *middleware.SessionManager, ctl *authController.Controller) {
	authGroup := api.Group("/auth")

	authGroup.Post("/register", authValidator.Register(), ctl.Register)
	authGroup.Post("/login", authValidator.Login(), ctl.Login)
	authGroup.Post("/logout", sessions.JWTMiddleware, ctl.Logout)
	authGroup.Get("/me", sessions.JWTMiddleware, ctl.Me)
}
