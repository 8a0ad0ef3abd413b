package courseValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/authoring"
	"pharmacoach/middleware"
	"pharmacoach/validators"
)

type DraftMetaRequest struct {
	CourseID      string  `json:"courseId"`
	Title         string  `json:"title" validate:"max=200"`
	TimeMinutes   int     `json:"timeMinutes" validate:"min=0"`
	PositiveMarks float64 `json:"positiveMarks" validate:"min=0"`
	NegativeMarks float64 `json:"negativeMarks" validate:"min=0"`
}

func (r *DraftMetaRequest) Meta() authoring.Meta {
	return authoring.Meta{
		CourseID:      strings.TrimSpace(r.CourseID),
		Title:         strings.TrimSpace(r.Title),
		TimeMinutes:   r.TimeMinutes,
		PositiveMarks: r.PositiveMarks,
		NegativeMarks: r.NegativeMarks,
	}
}

type BulkImportRequest struct {
	Text string `json:"text" validate:"notblank"`
}

// DraftMeta validator middleware
func DraftMeta() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(DraftMetaRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedDraftMeta", reqData)
		return c.Next()
	}
}

// DraftQuestion validator middleware
func DraftQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuestionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedDraftQuestion", reqData)
		return c.Next()
	}
}

// BulkImport validator middleware
func BulkImport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(BulkImportRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedBulkImport", reqData)
		return c.Next()
	}
}
