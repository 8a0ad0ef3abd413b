package attemptRoutes

import (
	"github.com/gofiber/fiber/v2"

	attemptController "pharmacoach/controllers/attempt"
	"pharmacoach/middleware"
	attemptValidator "pharmacoach/validators/attempt"
)

func SetupAttemptRoutes(api fiber.Router, sessions *middleware.SessionManager, ctl *attemptController.Controller) {
	attemptGroup := api.Group("/attempts", sessions.JWTMiddleware)

	attemptGroup.Post("/", attemptValidator.Start(), ctl.Start)
	attemptGroup.Get("/:id", ctl.Get)
	attemptGroup.Put("/:id/answers", attemptValidator.SelectAnswer(), ctl.SelectAnswer)
	attemptGroup.Post("/:id/navigate", attemptValidator.Navigate(), ctl.Navigate)
	attemptGroup.Post("/:id/submit", ctl.Submit)
}
