package courseValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/middleware"
	"pharmacoach/models"
	"pharmacoach/validators"
)

type CourseRequest struct {
	Title        string  `json:"title" validate:"notblank,max=200"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" validate:"min=0"`
	ValidityDays int     `json:"validityDays" validate:"min=0"`
	Category     string  `json:"category"`
	Icon         string  `json:"icon"`
	Color        string  `json:"color"`
}

func (r *CourseRequest) Course(id string) models.Course {
	return models.Course{
		ID:           id,
		Title:        strings.TrimSpace(r.Title),
		Description:  r.Description,
		Price:        r.Price,
		ValidityDays: r.ValidityDays,
		Category:     r.Category,
		Icon:         r.Icon,
		Color:        r.Color,
	}
}

// SaveCourse validator middleware
func SaveCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := validators.Struct(reqData)
		if strings.TrimSpace(c.Params("id")) == "" {
			errors["id"] = "Course id is required!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}
