package attemptValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/middleware"
	"pharmacoach/validators"
)

type StartRequest struct {
	TestID string `json:"testId" validate:"notblank"`
}

type AnswerRequest struct {
	QuestionIndex *int `json:"questionIndex" validate:"required,min=0"`
	OptionIndex   *int `json:"optionIndex" validate:"required,min=0,max=3"`
}

type NavigateRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

// Start validator middleware
func Start() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(StartRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.TestID = strings.TrimSpace(reqData.TestID)

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedStart", reqData)
		return c.Next()
	}
}

// SelectAnswer validator middleware
func SelectAnswer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AnswerRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAnswer", reqData)
		return c.Next()
	}
}

// Navigate validator middleware
func Navigate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(NavigateRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedNavigate", reqData)
		return c.Next()
	}
}
