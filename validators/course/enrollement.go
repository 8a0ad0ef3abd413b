package courseValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/middleware"
	"pharmacoach/validators"
)

type AssignRequest struct {
	CourseID     string   `json:"courseId" validate:"notblank"`
	StudentIDs   []string `json:"studentIds" validate:"required,min=1,dive,notblank"`
	ValidityDays *int     `json:"validityDays" validate:"omitempty,min=1"`
}

// AssignCourse validator middleware
func AssignCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AssignRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.CourseID = strings.TrimSpace(reqData.CourseID)

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAssign", reqData)
		return c.Next()
	}
}
