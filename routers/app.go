package routers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	attemptController "pharmacoach/controllers/attempt"
	authController "pharmacoach/controllers/auth"
	controllers "pharmacoach/controllers/course"
	userController "pharmacoach/controllers/userControllers"
	"pharmacoach/middleware"
	"pharmacoach/routers/attemptRoutes"
	"pharmacoach/routers/authRoutes"
	"pharmacoach/routers/courseRoutes"
	"pharmacoach/routers/userRoutes"
	"pharmacoach/utils"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Sessions *middleware.SessionManager
	Reporter *utils.ErrorReporter

	Auth     *authController.Controller
	Users    *userController.Controller
	Courses  *controllers.Controller
	Attempts *attemptController.Controller

	CORSOrigins string
	AccessLog   bool
}

// NewApp builds the fiber app with middleware and every /api route.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "pharmacoach",
		ErrorHandler: errorHandler(deps.Reporter),
	})

	app.Use(recover.New())

	origins := deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})

	authRoutes.SetupAuthRoutes(api, deps.Sessions, deps.Auth)
	userRoutes.SetupUserRoutes(api, deps.Sessions, deps.Users)
	courseRoutes.SetupCourseRoutes(api, deps.Sessions, deps.Courses)
	courseRoutes.SetupAdminCourseRoutes(api, deps.Sessions, deps.Courses)
	attemptRoutes.SetupAttemptRoutes(api, deps.Sessions, deps.Attempts)

	return app
}

// errorHandler renders unhandled errors in the response envelope. Anything that is not a
// fiber.Error is a server fault and goes to the reporter.
func errorHandler(reporter *utils.ErrorReporter) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			if fe.Code >= fiber.StatusInternalServerError {
				slog.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
			}
			return middleware.JsonResponse(c, fe.Code, false, fe.Message, nil)
		}

		reporter.Report(err, "method", c.Method(), "path", c.Path())
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong, please try again later.", nil)
	}
}
