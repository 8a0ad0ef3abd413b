package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "pharmacoach/controllers/course"
	"pharmacoach/middleware"
	courseValidator "pharmacoach/validators/course"
)

// SetupCourseRoutes sets up catalog, content and result routes
func SetupCourseRoutes(api fiber.Router, sessions *middleware.SessionManager, ctl *controllers.Controller) {
	auth := sessions.JWTMiddleware

	// Catalog is public, saving a course is not
	courseGroup := api.Group("/courses")
	courseGroup.Get("/", ctl.ListCourses)
	courseGroup.Get("/:id", ctl.GetCourse)
	courseGroup.Put("/:id", auth, middleware.AdminOnly, courseValidator.SaveCourse(), ctl.SaveCourse)

	testGroup := api.Group("/tests", auth)
	testGroup.Get("/", ctl.ListTests)
	testGroup.Get("/:id", ctl.GetTest)
	testGroup.Post("/", middleware.AdminOnly, courseValidator.CreateTest(), ctl.CreateTest)

	resourceGroup := api.Group("/resources", auth)
	resourceGroup.Get("/", ctl.ListResources)
	resourceGroup.Post("/", middleware.AdminOnly, courseValidator.CreateResource(), ctl.CreateResource)
	resourceGroup.Delete("/:id", middleware.AdminOnly, ctl.DeleteResource)

	api.Get("/results", auth, ctl.ListResults)
}
