package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "pharmacoach/controllers/course"
	"pharmacoach/middleware"
	courseValidator "pharmacoach/validators/course"
)

// SetupAdminCourseRoutes sets up enrollment and test authoring routes
func SetupAdminCourseRoutes(api fiber.Router, sessions *middleware.SessionManager, ctl *controllers.Controller) {
	api.Post("/enrollments", sessions.JWTMiddleware, middleware.AdminOnly, courseValidator.AssignCourse(), ctl.AssignCourse)

	// Draft authoring, one draft per admin
	draftGroup := api.Group("/authoring/draft", sessions.JWTMiddleware, middleware.AdminOnly)
	draftGroup.Get("/", ctl.GetDraft)
	draftGroup.Put("/", courseValidator.DraftMeta(), ctl.UpdateDraftMeta)
	draftGroup.Delete("/", ctl.DiscardDraft)
	draftGroup.Post("/questions", courseValidator.DraftQuestion(), ctl.AddDraftQuestion)
	draftGroup.Post("/import", courseValidator.BulkImport(), ctl.ImportDraftQuestions)
	draftGroup.Post("/publish", ctl.PublishDraft)
}
