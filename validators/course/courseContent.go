package courseValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pharmacoach/middleware"
	"pharmacoach/models"
	"pharmacoach/validators"
)

type QuestionRequest struct {
	Text               string   `json:"text" validate:"notblank"`
	Options            []string `json:"options" validate:"len=4,dive,notblank"`
	CorrectOptionIndex int      `json:"correctOptionIndex" validate:"min=0,max=3"`
	Explanation        string   `json:"explanation"`
}

type CreateTestRequest struct {
	ID            string            `json:"id"`
	CourseID      string            `json:"courseId" validate:"notblank"`
	Title         string            `json:"title" validate:"notblank,max=200"`
	Questions     []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
	TimeMinutes   int               `json:"timeMinutes" validate:"min=1"`
	PositiveMarks float64           `json:"positiveMarks" validate:"min=0"`
	NegativeMarks float64           `json:"negativeMarks" validate:"min=0"`
}

func (r *CreateTestRequest) Test() models.TestItem {
	questions := make([]models.Question, len(r.Questions))
	for i, q := range r.Questions {
		options := make([]string, len(q.Options))
		for j, o := range q.Options {
			options[j] = strings.TrimSpace(o)
		}
		questions[i] = models.Question{
			ID:                 uuid.NewString(),
			Text:               strings.TrimSpace(q.Text),
			Options:            options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			Explanation:        strings.TrimSpace(q.Explanation),
		}
	}
	return models.TestItem{
		ID:            r.ID,
		CourseID:      strings.TrimSpace(r.CourseID),
		Title:         strings.TrimSpace(r.Title),
		Questions:     questions,
		TimeMinutes:   r.TimeMinutes,
		PositiveMarks: r.PositiveMarks,
		NegativeMarks: r.NegativeMarks,
	}
}

type ResourceRequest struct {
	CourseID string `json:"courseId" validate:"notblank"`
	Title    string `json:"title" validate:"notblank,max=200"`
	Type     string `json:"type" validate:"oneof=video live"`
	URL      string `json:"url" validate:"required,url"`
}

func (r *ResourceRequest) Resource() models.CourseResource {
	return models.CourseResource{
		CourseID: strings.TrimSpace(r.CourseID),
		Title:    strings.TrimSpace(r.Title),
		Type:     r.Type,
		URL:      strings.TrimSpace(r.URL),
	}
}

// CreateTest validator middleware
func CreateTest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateTestRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedTest", reqData)
		return c.Next()
	}
}

// CreateResource validator middleware
func CreateResource() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ResourceRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedResource", reqData)
		return c.Next()
	}
}
